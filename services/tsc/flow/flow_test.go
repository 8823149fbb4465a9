// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package flow

import (
	"strings"
	"testing"

	"github.com/AleutianAI/tsfront/services/tsc/ast"
)

func TestSentinels(t *testing.T) {
	if Unreachable == ReportedUnreachable {
		t.Fatal("sentinels must be distinct")
	}
	if !IsUnreachable(Unreachable) || !IsUnreachable(ReportedUnreachable) {
		t.Fatal("sentinels must be flagged unreachable")
	}
	before := Unreachable.Flags
	SetReferenced(Unreachable)
	label := NewBranchLabel()
	AddAntecedent(label, Unreachable)
	if Unreachable.Flags != before {
		t.Errorf("sentinel mutated: %v", Unreachable.Flags)
	}
	if len(label.Antecedents) != 0 {
		t.Errorf("unreachable antecedent was added")
	}
}

func TestAddAntecedent_SkipsDuplicatesAndMarksShared(t *testing.T) {
	start := NewStart(nil)
	a, b := NewBranchLabel(), NewBranchLabel()

	AddAntecedent(a, start)
	AddAntecedent(a, start)
	if len(a.Antecedents) != 1 {
		t.Fatalf("len(Antecedents) = %d, want 1", len(a.Antecedents))
	}
	if start.Flags&FlagsReferenced == 0 || start.Flags&FlagsShared != 0 {
		t.Errorf("after one reference flags = %v", start.Flags)
	}

	AddAntecedent(b, start)
	if start.Flags&FlagsShared == 0 {
		t.Errorf("after two references flags = %v, want Shared", start.Flags)
	}
}

func TestFinishLabel(t *testing.T) {
	label := NewBranchLabel()
	if got := FinishLabel(label); got != Unreachable {
		t.Errorf("empty label finished to %v, want Unreachable", got.Flags)
	}

	one := NewStart(nil)
	AddAntecedent(label, one)
	if got := FinishLabel(label); got != one {
		t.Error("single antecedent should be returned directly")
	}

	AddAntecedent(label, NewStart(nil))
	if got := FinishLabel(label); got != label {
		t.Error("label with two antecedents should be returned")
	}
}

func TestNewCondition(t *testing.T) {
	f := ast.NewFactory()
	start := NewStart(nil)

	t.Run("unreachable stays unreachable", func(t *testing.T) {
		if got := NewCondition(FlagsTrueCondition, ReportedUnreachable, f.Identifier("x")); got != ReportedUnreachable {
			t.Error("expected the unreachable antecedent back")
		}
	})

	t.Run("missing expression", func(t *testing.T) {
		if got := NewCondition(FlagsTrueCondition, start, nil); got != start {
			t.Error("true arm of a missing condition is the antecedent")
		}
		if got := NewCondition(FlagsFalseCondition, start, nil); got != Unreachable {
			t.Error("false arm of a missing condition is unreachable")
		}
	})

	t.Run("literal arms", func(t *testing.T) {
		if got := NewCondition(FlagsFalseCondition, start, f.True()); got != Unreachable {
			t.Error("false arm of 'true' must be unreachable")
		}
		if got := NewCondition(FlagsTrueCondition, start, f.False()); got != Unreachable {
			t.Error("true arm of 'false' must be unreachable")
		}
		if got := NewCondition(FlagsTrueCondition, start, f.True()); got != start {
			t.Error("true arm of 'true' narrows nothing")
		}
	})

	t.Run("narrowing expression gets a node", func(t *testing.T) {
		cond := f.Identifier("c")
		got := NewCondition(FlagsTrueCondition, start, cond)
		if got.Flags&FlagsTrueCondition == 0 || got.Antecedent != start || got.Node != cond {
			t.Errorf("unexpected condition node: %s", Dump(got))
		}
	})

	t.Run("non narrowing expression", func(t *testing.T) {
		if got := NewCondition(FlagsTrueCondition, start, f.NumericLiteral("1")); got != start {
			t.Error("numeric literal condition should not create a node")
		}
	})
}

func TestIsNarrowingExpression(t *testing.T) {
	f := ast.NewFactory()
	x := func() *ast.Node { return f.Identifier("x") }

	tests := []struct {
		name string
		expr *ast.Node
		want bool
	}{
		{"identifier", x(), true},
		{"property access", f.PropertyAccess(x(), "y"), true},
		{"literal element access", f.ElementAccess(x(), f.StringLiteral("k")), true},
		{"computed element access", f.ElementAccess(x(), f.Call(f.Identifier("k"))), false},
		{"negation", f.Prefix("!", x()), true},
		{"minus", f.Prefix("-", x()), false},
		{"equality", f.Binary(x(), "===", f.Null()), true},
		{"typeof compare", f.Binary(f.TypeOf(x()), "===", f.StringLiteral("string")), true},
		{"instanceof", f.Binary(x(), "instanceof", f.Identifier("C")), true},
		{"in", f.Binary(f.StringLiteral("k"), "in", x()), true},
		{"arithmetic", f.Binary(x(), "+", f.NumericLiteral("1")), false},
		{"call with reference argument", f.Call(f.Identifier("isString"), x()), true},
		{"call without references", f.Call(f.Identifier("now")), false},
		{"parenthesized", f.Paren(x()), true},
		{"literal", f.NumericLiteral("0"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNarrowingExpression(tt.expr); got != tt.want {
				t.Errorf("IsNarrowingExpression() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsReachable_WithLoopBackEdge(t *testing.T) {
	start := NewStart(nil)
	loop := NewLoopLabel()
	AddAntecedent(loop, start)
	body := NewMutation(FlagsAssignment, loop, nil)
	AddAntecedent(loop, body)

	if !IsReachable(body) {
		t.Error("loop body should be reachable")
	}
	if IsReachable(Unreachable) {
		t.Error("sentinel must not be reachable")
	}

	orphan := NewLoopLabel()
	AddAntecedent(orphan, NewMutation(FlagsAssignment, orphan, nil))
	if IsReachable(orphan) {
		t.Error("a cycle without a start must not be reachable")
	}
}

func TestDump(t *testing.T) {
	start := NewStart(nil)
	label := NewBranchLabel()
	AddAntecedent(label, start)
	AddAntecedent(label, NewCall(start, nil))

	out := Dump(label)
	if lines := strings.Count(out, "\n"); lines != 3 {
		t.Errorf("Dump produced %d lines, want 3:\n%s", lines, out)
	}
	if !strings.Contains(out, "BranchLabel") || !strings.Contains(out, "Start") {
		t.Errorf("Dump missing node kinds:\n%s", out)
	}
}

func TestFlagsString(t *testing.T) {
	if got := (FlagsTrueCondition | FlagsReferenced).String(); got != "TrueCondition|Referenced" {
		t.Errorf("String() = %q", got)
	}
}
