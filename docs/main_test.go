package main

import (
	"reflect"
	"testing"

	"github.com/Lattice-Automation/codonopt/internal/cmd"
)

func Test_pages(t *testing.T) {
	index := pages(cmd.RootCmd)

	tests := []struct {
		page string
		want frontMatter
	}{
		{
			"codonopt",
			frontMatter{Layout: "default", Title: "codonopt", HasChildren: true, Permalink: "/codonopt"},
		},
		{
			"codonopt_build",
			frontMatter{Layout: "default", Title: "build", Parent: "codonopt"},
		},
		{
			"codonopt_optimize",
			frontMatter{Layout: "default", Title: "optimize", Parent: "codonopt", NavOrder: 1},
		},
		{
			"codonopt_delete",
			frontMatter{Layout: "default", Title: "delete", Parent: "codonopt", NavOrder: 3, HasChildren: true},
		},
		{
			"codonopt_list_organism",
			frontMatter{Layout: "default", Title: "organism", Parent: "list", GrandParent: "codonopt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			got, ok := index[tt.page]
			if !ok {
				t.Fatalf("pages() has no %s page", tt.page)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("pages()[%s] = %+v, want %+v", tt.page, got, tt.want)
			}
		})
	}
}
