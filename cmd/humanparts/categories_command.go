package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"humanparts/internal/annotations"
)

type categoryView struct {
	ID            int    `json:"id"`
	YOLOClass     int    `json:"yolo_class"`
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Supercategory string `json:"supercategory"`
}

type categoriesView struct {
	Variant    string         `json:"variant"`
	Categories []categoryView `json:"categories"`
}

var titleCaser = cases.Title(language.English)

// displayName renders "lefthand" as "Left Hand".
func displayName(name string) string {
	for _, side := range []string{"left", "right"} {
		if rest, ok := strings.CutPrefix(name, side); ok && rest != "" {
			name = side + " " + rest
			break
		}
	}
	return titleCaser.String(name)
}

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var variant string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show a category table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(variant) == "" {
				variant = ctx.configValue().Categories.Variant
			}
			table, err := annotations.Table(variant)
			if err != nil {
				return err
			}

			view := categoriesView{Variant: table.Version}
			for _, category := range table.Categories {
				view.Categories = append(view.Categories, categoryView{
					ID:            category.ID,
					YOLOClass:     category.ID - 1,
					Name:          category.Name,
					DisplayName:   displayName(category.Name),
					Supercategory: category.Supercategory,
				})
			}
			if asJSON {
				return writeJSON(cmd, view)
			}

			rows := make([][]string, 0, len(view.Categories))
			for _, c := range view.Categories {
				rows = append(rows, []string{strconv.Itoa(c.ID), strconv.Itoa(c.YOLOClass), c.Name, c.DisplayName, c.Supercategory})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Variant: %s\n", view.Variant)
			fmt.Fprintln(out, renderTable(
				[]string{"COCO ID", "YOLO class", "Name", "Display", "Supercategory"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "Category variant (parts7 or fused5; defaults to categories.variant)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
