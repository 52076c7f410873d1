package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lattice-Automation/codonopt/internal/cmd"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	"gopkg.in/yaml.v2"
)

// navOrder places the top level commands in the order a user runs them.
// Subcommands are ordered by name.
var navOrder = map[string]int{
	"build":    0,
	"optimize": 1,
	"list":     2,
	"delete":   3,
}

// frontMatter is the page header of the just-the-docs theme
// https://just-the-docs.com/docs/navigation-structure/
type frontMatter struct {
	Layout      string `yaml:"layout"`
	Title       string `yaml:"title"`
	Parent      string `yaml:"parent,omitempty"`
	GrandParent string `yaml:"grand_parent,omitempty"`
	NavOrder    int    `yaml:"nav_order"`
	HasChildren bool   `yaml:"has_children,omitempty"`
	Permalink   string `yaml:"permalink,omitempty"`
}

// pageName is the file name cobra gives a command's page, without extension
func pageName(c *cobra.Command) string {
	return strings.ReplaceAll(c.CommandPath(), " ", "_")
}

// pages indexes the front matter of every documented command by page name
func pages(root *cobra.Command) map[string]frontMatter {
	index := map[string]frontMatter{}

	var walk func(c *cobra.Command, depth, order int)
	walk = func(c *cobra.Command, depth, order int) {
		if !c.IsAvailableCommand() && c != root {
			return
		}

		fm := frontMatter{
			Layout:      "default",
			Title:       c.Name(),
			NavOrder:    order,
			HasChildren: c.HasAvailableSubCommands(),
		}
		switch depth {
		case 0:
			fm.Permalink = "/" + c.Name()
		case 1:
			fm.Parent = c.Parent().Name()
		default:
			fm.Parent = c.Parent().Name()
			fm.GrandParent = c.Parent().Parent().Name()
		}
		index[pageName(c)] = fm

		// cobra sorts subcommands by name
		for i, sub := range c.Commands() {
			subOrder := i
			if o, ok := navOrder[sub.Name()]; ok && depth == 0 {
				subOrder = o
			}
			walk(sub, depth+1, subOrder)
		}
	}
	walk(root, 0, 0)
	return index
}

func main() {
	dir := "."
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	index := pages(cmd.RootCmd)
	prepend := func(filename string) string {
		fm, ok := index[strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))]
		if !ok {
			return ""
		}
		out, err := yaml.Marshal(fm)
		if err != nil {
			return ""
		}
		return "---\n" + string(out) + "---\n"
	}
	link := func(name string) string {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}

	if err := doc.GenMarkdownTreeCustom(cmd.RootCmd, dir, prepend, link); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
