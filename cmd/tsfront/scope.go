// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsfront/services/tsc/moduleresolution"
	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

func newScopeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "scope <dir|file>...",
		Short: "Print the package.json scope and implied module format of paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(projectDir)
			if err != nil {
				return err
			}
			cfg, err := options.LoadProjectConfig(dir)
			if err != nil {
				return err
			}
			host := moduleresolution.NewOSHost()
			cache := moduleresolution.NewMemoryCache(moduleresolution.WithCaseSensitivity(host.UseCaseSensitiveFileNames()))
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return err
				}
				describeScope(cmd.Context(), c.stdout, tspath.NormalizePath(filepath.ToSlash(abs)), host, cache, &cfg.CompilerOptions)
			}
			return nil
		},
	}
}

// describeScope prints the package scope of path and, for files, the
// module format the scope implies.
func describeScope(ctx context.Context, w io.Writer, path string, host *moduleresolution.OSHost, cache moduleresolution.Cache, compilerOptions *options.CompilerOptions) {
	fmt.Fprintln(w, path)

	dir := path
	isFile := host.FileExists(path)
	if isFile {
		dir = tspath.GetDirectoryPath(path)
	}

	state := moduleresolution.NewState(ctx, host, compilerOptions, cache)
	scope := moduleresolution.GetPackageScopeForPath(dir, state)
	if scope == nil {
		fmt.Fprintln(w, "  package.json: none")
	} else {
		name, typ := "", scope.Type()
		if scope.Contents != nil {
			name = scope.Contents.Fields.Name
		}
		if typ == "" {
			typ = "commonjs (default)"
		}
		fmt.Fprintf(w, "  package.json: %s\n", tspath.CombinePaths(scope.PackageDirectory, "package.json"))
		if name != "" {
			fmt.Fprintf(w, "  name:         %s\n", name)
		}
		fmt.Fprintf(w, "  type:         %s\n", typ)
	}

	if !isFile {
		return
	}
	implied, ok := moduleresolution.GetImpliedNodeFormatForFileWorker(ctx, path, cache, host, compilerOptions)
	if !ok {
		fmt.Fprintf(w, "  format:       none under moduleResolution %s\n", compilerOptions.GetModuleResolutionKind())
		return
	}
	fmt.Fprintf(w, "  format:       %s\n", implied.Format)
}
