// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diagnostics

func msg(code int, category Category, key, text string) *Message {
	return &Message{Code: code, Category: category, Key: key, Text: text}
}

// Binder and grammar messages.
var (
	DuplicateIdentifier = msg(2300, CategoryError, "Duplicate_identifier_0_2300",
		"Duplicate identifier '{0}'.")
	CannotRedeclareBlockScopedVariable = msg(2451, CategoryError, "Cannot_redeclare_block_scoped_variable_0_2451",
		"Cannot redeclare block-scoped variable '{0}'.")
	MultipleDefaultExports = msg(2528, CategoryError, "A_module_cannot_have_multiple_default_exports_2528",
		"A module cannot have multiple default exports.")
	UnreachableCodeDetected = msg(7027, CategoryError, "Unreachable_code_detected_7027",
		"Unreachable code detected.")
	UnusedLabel = msg(7028, CategoryError, "Unused_label_7028",
		"Unused label.")
	FallthroughCaseInSwitch = msg(7029, CategoryError, "Fallthrough_case_in_switch_7029",
		"Fallthrough case in switch.")
	ContinueOutsideIteration = msg(1104, CategoryError,
		"A_continue_statement_can_only_be_used_within_an_enclosing_iteration_statement_1104",
		"A 'continue' statement can only be used within an enclosing iteration statement.")
	BreakOutsideIterationOrSwitch = msg(1105, CategoryError,
		"A_break_statement_can_only_be_used_within_an_enclosing_iteration_or_switch_statement_1105",
		"A 'break' statement can only be used within an enclosing iteration or switch statement.")
	JumpTargetCrossesFunctionBoundary = msg(1107, CategoryError, "Jump_target_cannot_cross_function_boundary_1107",
		"Jump target cannot cross function boundary.")
	DuplicateLabel = msg(1114, CategoryError, "Duplicate_label_0_1114",
		"Duplicate label '{0}'.")
	ContinueLabelNotIteration = msg(1115, CategoryError,
		"A_continue_statement_can_only_jump_to_a_label_of_an_enclosing_iteration_statement_1115",
		"A 'continue' statement can only jump to a label of an enclosing iteration statement.")
	BreakLabelNotEnclosing = msg(1116, CategoryError,
		"A_break_statement_can_only_jump_to_a_label_of_an_enclosing_statement_1116",
		"A 'break' statement can only jump to a label of an enclosing statement.")
	InvalidUseInStrictMode = msg(1100, CategoryError, "Invalid_use_of_0_in_strict_mode_1100",
		"Invalid use of '{0}' in strict mode.")
	WithStatementInStrictMode = msg(1101, CategoryError, "with_statements_are_not_allowed_in_strict_mode_1101",
		"'with' statements are not allowed in strict mode.")
	DeleteIdentifierInStrictMode = msg(1102, CategoryError, "delete_cannot_be_called_on_an_identifier_in_strict_mode_1102",
		"'delete' cannot be called on an identifier in strict mode.")
	ReservedWordInStrictMode = msg(1212, CategoryError,
		"Identifier_expected_0_is_a_reserved_word_in_strict_mode_1212",
		"Identifier expected. '{0}' is a reserved word in strict mode.")
	InvalidUseInModule = msg(1215, CategoryError,
		"Invalid_use_of_0_Modules_are_automatically_in_strict_mode_1215",
		"Invalid use of '{0}'. Modules are automatically in strict mode.")
	FunctionDeclarationInBlockES5 = msg(1250, CategoryError,
		"Function_declarations_are_not_allowed_inside_blocks_in_strict_mode_when_targeting_ES5_1250",
		"Function declarations are not allowed inside blocks in strict mode when targeting 'ES5'.")
	ExportOnAmbientModule = msg(2668, CategoryError,
		"export_modifier_cannot_be_applied_to_ambient_modules_and_module_augmentations_since_they_are_always_visible_2668",
		"'export' modifier cannot be applied to ambient modules and module augmentations since they are always visible.")
	StaticPropertyConflictsWithFunction = msg(2699, CategoryError,
		"Static_property_0_conflicts_with_built_in_property_Function_0_of_constructor_function_1_2699",
		"Static property '{0}' conflicts with built-in property 'Function.{0}' of constructor function '{1}'.")
)

// Parser and resolution messages.
var (
	TokenExpected = msg(1005, CategoryError, "Syntax_error_0_1005",
		"'{0}' expected.")
	DeclarationOrStatementExpected = msg(1128, CategoryError, "Declaration_or_statement_expected_1128",
		"Declaration or statement expected.")
	CannotFindModule = msg(2307, CategoryError, "Cannot_find_module_0_or_its_corresponding_type_declarations_2307",
		"Cannot find module '{0}' or its corresponding type declarations.")
	FileNotFound = msg(6053, CategoryError, "File_0_not_found_6053",
		"File '{0}' not found.")
	CannotReadFile = msg(5012, CategoryError, "Cannot_read_file_0_Colon_1_5012",
		"Cannot read file '{0}': {1}.")
	UnknownCompilerOption = msg(5023, CategoryError, "Unknown_compiler_option_0_5023",
		"Unknown compiler option '{0}'.")
)
