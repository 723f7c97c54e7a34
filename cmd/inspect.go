// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	clrmeta "github.com/opendotnet/clrmeta"
)

var (
	asJSON        bool
	wantTypes     bool
	wantMethods   bool
	wantAssembly  bool
	wantRefs      bool
	wantAnomalies bool
	wantSections  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Parse a managed assembly (or a directory of them) and print its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&asJSON, "json", false, "print the full decoded document as JSON")
	inspectCmd.Flags().BoolVar(&wantTypes, "types", true, "list TypeDef rows")
	inspectCmd.Flags().BoolVar(&wantMethods, "methods", false, "list MethodDef rows")
	inspectCmd.Flags().BoolVar(&wantAssembly, "assembly", true, "print the Assembly row")
	inspectCmd.Flags().BoolVar(&wantRefs, "refs", false, "list AssemblyRef rows")
	inspectCmd.Flags().BoolVar(&wantAnomalies, "anomalies", true, "list structural anomalies")
	inspectCmd.Flags().BoolVar(&wantSections, "sections", false, "list PE sections, their flags and entropy")
}

func inspect(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return inspectFile(path)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	errFn := func(p string, err error) {
		mu.Lock()
		fmt.Fprintf(os.Stderr, "%s: %v\n", p, err)
		mu.Unlock()
	}

	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return nil
		}
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if err := inspectFile(p); err != nil {
				errFn(p, err)
			}
		}(p)
		return nil
	})
	wg.Wait()
	return err
}

func inspectFile(path string) error {
	asm, err := clrmeta.Load(path)
	if err != nil {
		return err
	}
	defer asm.Close()

	if asJSON {
		return printJSON(asm)
	}

	fmt.Printf("== %s ==\n", path)

	if wantAssembly {
		printAssembly(asm)
	}
	if wantRefs {
		printAssemblyRefs(asm)
	}
	if wantTypes {
		printTypes(asm)
	}
	if wantMethods {
		printMethods(asm)
	}
	if wantAnomalies {
		printAnomalies(asm)
	}
	if wantSections {
		printSections(asm)
	}

	return nil
}

func printJSON(asm *clrmeta.ManagedAssembly) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(asm.CLR); err != nil {
		return err
	}
	fmt.Print(buf.String())
	return nil
}

func printAssembly(asm *clrmeta.ManagedAssembly) {
	row, ok, err := asm.Assembly()
	if err != nil {
		fmt.Fprintf(os.Stderr, "assembly: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("assembly: (this is a module, not an assembly)")
		return
	}
	name, _ := asm.String(row.Name)
	fmt.Printf("assembly: %s v%d.%d.%d.%d\n", name,
		row.MajorVersion, row.MinorVersion, row.BuildNumber, row.RevisionNumber)
}

func printAssemblyRefs(asm *clrmeta.ManagedAssembly) {
	refs, err := asm.AssemblyRefs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "assembly refs: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION")
	for _, r := range refs {
		name, _ := asm.String(r.Name)
		fmt.Fprintf(w, "%s\t%d.%d.%d.%d\n", name, r.MajorVersion, r.MinorVersion, r.BuildNumber, r.RevisionNumber)
	}
	w.Flush()
}

func printTypes(asm *clrmeta.ManagedAssembly) {
	types, err := asm.TypeDefs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "types: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tFLAGS")
	for _, t := range types {
		full, _ := asm.TypeDefFullName(t)
		fmt.Fprintf(w, "%s\t0x%x\n", full, t.Flags)
	}
	w.Flush()
}

func printMethods(asm *clrmeta.ManagedAssembly) {
	methods, err := asm.MethodDefs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "methods: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tRVA\tFLAGS")
	for _, m := range methods {
		name, _ := asm.String(m.Name)
		fmt.Fprintf(w, "%s\t0x%x\t0x%x\n", name, m.RVA, m.Flags)
	}
	w.Flush()
}

func printSections(asm *clrmeta.ManagedAssembly) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENTROPY\tFLAGS")
	for _, sec := range asm.Sections {
		fmt.Fprintf(w, "%s\t%.2f\t%s\n", sec.String(), sec.Entropy, strings.Join(sec.PrettySectionFlags(), "|"))
	}
	w.Flush()
}

func printAnomalies(asm *clrmeta.ManagedAssembly) {
	if len(asm.Anomalies) == 0 {
		return
	}
	fmt.Println("anomalies:")
	for _, a := range asm.Anomalies {
		fmt.Printf("  - %s\n", a)
	}
}
