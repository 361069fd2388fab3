package main

import (
	"github.com/spf13/cobra"

	"github.com/transactly/transactly/internal/model"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the canonical spending categories",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, c := range model.Categories() {
				cmd.Println(c)
			}
		},
	}
}
