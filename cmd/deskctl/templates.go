package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/studiodesk/studio-desk/internal/api/dto"
	"github.com/studiodesk/studio-desk/internal/client"
)

func newTemplatesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "Manage the ticket template catalog of this session",
	}
	cmd.AddCommand(
		newTemplatesListCmd(c),
		newTemplatesCategoriesCmd(c),
		newTemplatesCreateCmd(c),
		newTemplatesDuplicateCmd(c),
		newTemplatesDeleteCmd(c),
		newTemplatesUseCmd(c),
		newTemplatesResetCmd(c),
	)
	return cmd
}

func newTemplatesListCmd(c *cli) *cobra.Command {
	var filter client.TemplateFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.client.Templates(cmd.Context(), filter)
			if err != nil {
				return err
			}
			c.renderTemplates(list)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Search, "search", "", "match name, description or tags")
	cmd.Flags().StringVar(&filter.Category, "category", "", "category name")
	cmd.Flags().StringVar(&filter.Priority, "priority", "", "template priority")
	return cmd
}

func newTemplatesCategoriesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List template categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := c.client.TemplateCategories(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range categories {
				fmt.Fprintln(c.out, name)
			}
			return nil
		},
	}
}

func newTemplatesCreateCmd(c *cli) *cobra.Command {
	var req dto.CreateTemplateRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a custom template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := c.client.CreateTemplate(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Created %s (%s)\n", t.ID, t.Name)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "template name")
	flags.StringVar(&req.Description, "description", "", "what the template is for")
	flags.StringVar(&req.Category, "category", "", "category, Custom when empty")
	flags.StringVar(&req.Subcategory, "subcategory", "", "subcategory")
	flags.StringVar(&req.Priority, "priority", "", "default ticket priority")
	flags.StringVar(&req.SuggestedTitle, "title", "", "suggested ticket title, [Placeholders] allowed")
	flags.StringVar(&req.SuggestedDescription, "body", "", "suggested ticket description")
	flags.StringVar(&req.Tags, "tags", "", "comma separated tags")
	flags.IntVar(&req.SLAHours, "sla-hours", 0, "SLA in hours")
	return cmd
}

func newTemplatesDuplicateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.client.DuplicateTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Created %s (%s)\n", t.ID, t.Name)
			return nil
		},
	}
}

func newTemplatesDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client.DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newTemplatesUseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Print the new-ticket prefill for a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.client.UseTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, titleStyle.Render(p.Title))
			fmt.Fprintf(c.out, "Priority %s, category %s", p.Priority, p.Category)
			if p.SLAHours > 0 {
				fmt.Fprintf(c.out, ", SLA %dh", p.SLAHours)
			}
			fmt.Fprintln(c.out)
			if p.Description != "" {
				fmt.Fprintln(c.out)
				fmt.Fprintln(c.out, p.Description)
			}
			if len(p.Placeholders) > 0 {
				fmt.Fprintln(c.out)
				fmt.Fprintln(c.out, mutedStyle.Render("Fill in: "+strings.Join(p.Placeholders, ", ")))
			}
			if len(p.RequiredFields) > 0 {
				fmt.Fprintln(c.out, mutedStyle.Render("Required: "+strings.Join(p.RequiredFields, ", ")))
			}
			fmt.Fprintf(c.out, "Used %d times\n", p.UsageCount)
			return nil
		},
	}
}

func newTemplatesResetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the built-in catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.client.ResetTemplates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Catalog reset to %d templates\n", list.Total)
			return nil
		},
	}
}

func (c *cli) renderTemplates(list *dto.TemplateListResponse) {
	fmt.Fprintln(c.out, titleStyle.Render(fmt.Sprintf("Templates (%d of %d)", list.Count, list.Total)))
	if len(list.Templates) == 0 {
		fmt.Fprintln(c.out, mutedStyle.Render("No templates match."))
		return
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRIORITY\tSLA\tUSED\tLAST USED")
	for _, t := range list.Templates {
		last := t.LastUsedLabel
		if last == "" {
			last = "never"
		}
		name := t.Name
		if t.IsCustom {
			name += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dh\t%d\t%s\n",
			t.ID, truncate(name, 40), t.Category, t.Priority, t.SLAHours, t.UsageCount, last)
	}
	_ = w.Flush()
}
