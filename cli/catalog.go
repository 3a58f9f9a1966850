// ABOUTME: Catalog CLI commands: items, templates, bulk CSV import and image upload
// ABOUTME: Item and template input runs through the same wizards the TUI uses
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/bulkimport"
	"github.com/harperreed/agentdash/catalog"
	"github.com/harperreed/agentdash/db"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/wizard"
)

func CatalogListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("catalog list", flag.ExitOnError)
	query := fs.String("query", "", "Search by name or SKU")
	category := fs.String("category", "", "Filter by category")
	availability := fs.String("availability", "", "Filter by availability")
	page := fs.Int("page", 1, "Page number")
	perPage := fs.Int("per-page", 20, "Items per page")
	_ = fs.Parse(args)

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	filter := api.CatalogFilter{Category: *category, Availability: models.Availability(*availability)}
	if err := app.Syncer.Catalog.Load(ctx, filter.Params(*page, *perPage, *query)); err != nil {
		return fmt.Errorf("failed to list catalog: %w", err)
	}

	items := app.stores().Catalog.Items()
	if len(items) == 0 {
		app.printf("No catalog items found\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "NAME\tSKU\tCATEGORY\tPRICE\tAVAILABILITY\tID")
	_, _ = fmt.Fprintln(w, "----\t---\t--------\t-----\t------------\t--")
	for _, i := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			truncate(i.Name, 40), orDash(i.SKU), orDash(i.Category), i.Price.StringFixed(2), i.Currency, i.Availability, i.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printPagination(app, app.stores().Catalog.Pagination(), len(items))
	return nil
}

func printPagination(app *App, p *models.Pagination, shown int) {
	if p == nil {
		app.printf("\nTotal: %d\n", shown)
		return
	}
	app.printf("\nPage %d of %d (%d total)\n", p.Page, max(p.TotalPages, 1), p.Total)
}

func CatalogGetCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("catalog get", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: catalog get <id>")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	item, err := app.Syncer.Catalog.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	w := app.table()
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", item.Name)
	_, _ = fmt.Fprintf(w, "Description:\t%s\n", orDash(item.Description))
	_, _ = fmt.Fprintf(w, "Category:\t%s\n", orDash(item.Category))
	_, _ = fmt.Fprintf(w, "SKU:\t%s\n", orDash(item.SKU))
	_, _ = fmt.Fprintf(w, "Price:\t%s %s\n", item.Price.StringFixed(2), item.Currency)
	_, _ = fmt.Fprintf(w, "Availability:\t%s\n", item.Availability)
	for _, img := range item.Images {
		_, _ = fmt.Fprintf(w, "Image:\t%s\n", img)
	}
	keys := make([]string, 0, len(item.ExtraFields))
	for k := range item.ExtraFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s:\t%v\n", k, item.ExtraFields[k])
	}
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", item.ID)
	return w.Flush()
}

type itemFlags struct {
	name, description, category, sku *string
	price, currency, availability     *string
	template                          *string
	fields                            multiFlag
}

func registerItemFlags(fs *flag.FlagSet) *itemFlags {
	f := &itemFlags{
		name:         fs.String("name", "", "Item name"),
		description:  fs.String("description", "", "Description"),
		category:     fs.String("category", "", "Category"),
		sku:          fs.String("sku", "", "Stock keeping unit"),
		price:        fs.String("price", "", "Price, e.g. 12.50"),
		currency:     fs.String("currency", "", "3-letter currency code (default USD)"),
		availability: fs.String("availability", "", "in_stock, out_of_stock, preorder or discontinued"),
		template:     fs.String("template", "", "Template ID for custom fields"),
	}
	fs.Var(&f.fields, "field", "Custom field as key=value (repeatable)")
	return f
}

// apply copies the flags that were set onto the form.
func (f *itemFlags) apply(fs *flag.FlagSet, form *catalog.ItemForm) error {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "name":
			form.Name = *f.name
		case "description":
			form.Description = *f.description
		case "category":
			form.Category = *f.category
		case "sku":
			form.SKU = *f.sku
		case "price":
			form.Price = *f.price
		case "currency":
			form.Currency = strings.ToUpper(*f.currency)
		case "availability":
			form.Availability = *f.availability
		}
	})
	extra, err := f.fields.pairs()
	if err != nil {
		return err
	}
	for k, v := range extra {
		form.Extra[k] = v
	}
	return nil
}

// validateItem runs every wizard step and reports the first failing one.
func validateItem(form *catalog.ItemForm) error {
	wiz := catalog.NewItemWizard(form)
	if !wiz.ValidateAll() {
		return fmt.Errorf("%s: %w", wiz.Current().Name, wiz.Errors().Err())
	}
	return nil
}

func (a *App) template(id string) (*models.CatalogTemplate, error) {
	if id == "" {
		return nil, nil
	}
	if t, ok := a.stores().Templates.Get(id); ok {
		return &t, nil
	}
	ctx, cancel := a.ctx()
	defer cancel()
	t, err := a.Syncer.Templates.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", id, err)
	}
	return t, nil
}

func CatalogCreateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("catalog create", flag.ExitOnError)
	flags := registerItemFlags(fs)
	_ = fs.Parse(args)

	if err := app.requireAuth(); err != nil {
		return err
	}
	tmpl, err := app.template(*flags.template)
	if err != nil {
		return err
	}

	form := catalog.NewItemForm(tmpl)
	if err := flags.apply(fs, &form); err != nil {
		return err
	}
	if err := validateItem(&form); err != nil {
		return err
	}
	in, err := form.Input()
	if err != nil {
		return err
	}

	ctx, cancel := app.ctx()
	defer cancel()
	item, err := app.Syncer.Catalog.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	app.printf("✓ Catalog item created: %s (ID: %s)\n", item.Name, item.ID)
	app.printf("  Price: %s %s\n", item.Price.StringFixed(2), item.Currency)
	return nil
}

// CatalogUpdateCommand edits an item. Flags must come before the item ID.
func CatalogUpdateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("catalog update", flag.ExitOnError)
	flags := registerItemFlags(fs)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: catalog update [flags] <id>")
	}
	id := fs.Arg(0)

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	current, err := app.Syncer.Catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	templateID := current.TemplateID
	if *flags.template != "" {
		templateID = *flags.template
	}
	tmpl, err := app.template(templateID)
	if err != nil {
		return err
	}

	form := catalog.FormFromItem(*current, tmpl)
	if err := flags.apply(fs, &form); err != nil {
		return err
	}
	if err := validateItem(&form); err != nil {
		return err
	}
	in, err := form.Input()
	if err != nil {
		return err
	}

	item, err := app.Syncer.Catalog.Update(ctx, id, in, nil)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	app.printf("✓ Catalog item updated: %s\n", item.Name)
	return nil
}

func CatalogDeleteCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("catalog delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: catalog delete [--yes] <id>")
	}
	id := fs.Arg(0)

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	item, err := app.Syncer.Catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := app.confirmDelete(fmt.Sprintf("%q", item.Name), id, *yes)
	if err != nil || !ok {
		return err
	}

	ctx, cancel = app.ctx()
	defer cancel()
	if err := app.Syncer.Catalog.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	app.printf("✓ Deleted %s\n", item.Name)
	return nil
}

func CatalogTemplatesCommand(app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	if err := app.Syncer.Templates.Load(ctx, api.ListParams{}); err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	templates := app.stores().Templates.Items()
	if len(templates) == 0 {
		app.printf("No templates found\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "NAME\tFIELDS\tID")
	_, _ = fmt.Fprintln(w, "----\t------\t--")
	for _, t := range templates {
		labels := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			labels[i] = f.Key + ":" + string(f.Type)
			if f.Required {
				labels[i] += "*"
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, truncate(strings.Join(labels, ", "), 60), t.ID)
	}
	return w.Flush()
}

// parseFieldSpec reads "Label:type[:required][:opt1|opt2]".
func parseFieldSpec(spec string) (catalog.FieldForm, error) {
	parts := strings.Split(spec, ":")
	label := strings.TrimSpace(parts[0])
	typ := models.FieldText
	if len(parts) > 1 && parts[1] != "" {
		typ = models.FieldType(strings.TrimSpace(parts[1]))
	}
	if !typ.Valid() {
		return catalog.FieldForm{}, fmt.Errorf("field %q: unknown type %q", label, typ)
	}

	field := catalog.NewFieldForm(label, typ)
	for _, extra := range parts[min(2, len(parts)):] {
		switch {
		case extra == "required":
			field.Required = true
		case extra != "":
			field.Options = strings.Split(extra, "|")
		}
	}
	return field, nil
}

func CatalogTemplateCreateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("catalog template-create", flag.ExitOnError)
	name := fs.String("name", "", "Template name (required)")
	description := fs.String("description", "", "Description")
	var fields multiFlag
	fs.Var(&fields, "field", "Field as Label:type[:required][:opt1|opt2] (repeatable)")
	_ = fs.Parse(args)

	form := catalog.TemplateForm{Name: *name, Description: *description}
	for _, spec := range fields {
		field, err := parseFieldSpec(spec)
		if err != nil {
			return err
		}
		form.AddField(field)
	}
	wiz := catalog.NewTemplateWizard(&form)
	if !wiz.ValidateAll() {
		return fmt.Errorf("%s: %w", wiz.Current().Name, wiz.Errors().Err())
	}

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()
	t, err := app.Syncer.Templates.Create(ctx, form.Input())
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	app.printf("✓ Template created: %s with %d fields (ID: %s)\n", t.Name, len(t.Fields), t.ID)
	return nil
}

// CatalogImportCommand walks the bulk import wizard non-interactively.
// Headers are auto-mapped; --map overrides individual fields.
func CatalogImportCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("catalog import", flag.ExitOnError)
	file := fs.String("file", "", "CSV file to import (required)")
	templateID := fs.String("template", "", "Template ID for custom fields")
	dryRun := fs.Bool("dry-run", false, "Show the mapping and preview without uploading")
	var mappings multiFlag
	fs.Var(&mappings, "map", "Field mapping as field=Column Header (repeatable)")
	_ = fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("--file is required")
	}
	overrides, err := mappings.pairs()
	if err != nil {
		return err
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	tmpl, err := app.template(*templateID)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *file, err)
	}

	sess := bulkimport.NewSession(tmpl)
	if err := sess.Load(filepath.Base(*file), data); err != nil {
		return err
	}
	if !sess.Next() {
		return stepError(sess.Step(), sess.Errors())
	}
	for field, header := range overrides {
		if err := sess.SetMapping(field, header); err != nil {
			return err
		}
	}
	printMapping(app, sess)

	if !sess.Next() {
		return stepError(sess.Step(), sess.Errors())
	}
	printPreview(app, sess)
	if *dryRun {
		app.printf("\nDry run, nothing uploaded\n")
		return nil
	}

	ctx, cancel := app.ctx()
	defer cancel()
	result, err := sess.Submit(ctx, app.Syncer.Services().Catalog)
	if err != nil {
		return err
	}
	if run, ok := sess.Run(); ok && app.DB != nil {
		if err := db.RecordImport(app.DB, run); err != nil {
			app.Log.Warn("could not record import history", "err", err)
		}
	}

	app.printf("\n✓ Imported %d items\n", result.SuccessCount)
	if result.ErrorCount > 0 {
		app.printf("✗ %d rows failed\n", result.ErrorCount)
		for _, e := range result.Errors {
			app.printf("  row %d: %s\n", e.Row, e.Message)
		}
	}
	return nil
}

func stepError(step bulkimport.Step, errs wizard.Errors) error {
	return fmt.Errorf("%s: %w", step, errs.Err())
}

func printMapping(app *App, sess *bulkimport.Session) {
	sheet := sess.Sheet()
	app.printf("%s: %d rows, %d columns\n\n", sheet.FileName, len(sheet.Rows), len(sheet.Headers))

	w := app.table()
	_, _ = fmt.Fprintln(w, "FIELD\tCOLUMN")
	_, _ = fmt.Fprintln(w, "-----\t------")
	mapping := sess.Mapping()
	for _, f := range sess.Fields() {
		label := f.Label
		if f.Required {
			label += " *"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", label, orDash(mapping[f.Key]))
	}
	_ = w.Flush()
}

func printPreview(app *App, sess *bulkimport.Session) {
	mapping := sess.Mapping()
	var fields []bulkimport.Field
	for _, f := range sess.Fields() {
		if mapping[f.Key] != "" {
			fields = append(fields, f)
		}
	}

	app.printf("\nPreview:\n")
	w := app.table()
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = strings.ToUpper(f.Label)
	}
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range sess.Preview(5) {
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = truncate(orDash(row[f.Key]), 30)
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
}

// CatalogUploadImageCommand uploads an image and optionally attaches it to an item.
func CatalogUploadImageCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("catalog upload-image", flag.ExitOnError)
	itemID := fs.String("item", "", "Attach the image to this item")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: catalog upload-image [--item <id>] <file>")
	}
	path := fs.Arg(0)

	if err := app.requireAuth(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ctx, cancel := app.ctx()
	defer cancel()
	catalogAPI := app.Syncer.Services().Catalog
	url, err := catalogAPI.UploadImage(ctx, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	app.printf("✓ Uploaded %s\n  URL: %s\n", filepath.Base(path), url)

	if *itemID == "" {
		return nil
	}
	item, err := app.Syncer.Catalog.Get(ctx, *itemID)
	if err != nil {
		return err
	}
	updated, err := catalogAPI.SetImages(ctx, *item, append(item.Images, url))
	if err != nil {
		return fmt.Errorf("failed to attach image: %w", err)
	}
	app.stores().Catalog.Update(updated.ID, *updated)
	app.printf("✓ Attached to %s (%d images)\n", updated.Name, len(updated.Images))
	return nil
}
