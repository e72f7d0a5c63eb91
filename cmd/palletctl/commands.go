package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"palletvox.app/internal/grid"
	editlog "palletvox.app/internal/persistence/log"
	"palletvox.app/internal/persistence/snapshot"
	"palletvox.app/internal/persistence/store"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func required(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: missing -%s", errUsage, name)
	}
	return nil
}

func optionalGroup(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func listCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("list")
	group := fs.String("group", "", "only palettes in this group")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	list, err := e.st.ListPalettes(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDIMS\tFILL\tGROUP\tUPDATED")
	for _, p := range list {
		g := ""
		if p.GroupID != nil {
			g = *p.GroupID
		}
		if *group != "" && g != *group {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Dimensions, p.Stats.Badge(), g, formatMs(p.UpdatedAt))
	}
	return tw.Flush()
}

func createCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("create")
	dims := fs.String("dims", "", "dimensions LxWxH (default from limits)")
	name := fs.String("name", "", "palette name")
	group := fs.String("group", "", "group id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	var d grid.Dimensions
	if *dims == "" {
		d = e.limits.Defaults()
	} else {
		var err error
		if d, err = grid.ParseDimensions(*dims); err != nil {
			return err
		}
	}
	if g := optionalGroup(*group); g != nil {
		if _, err := e.st.GetGroup(ctx, *g); err != nil {
			return fmt.Errorf("group %s: %w", *g, err)
		}
	}
	p, err := e.st.CreatePalette(ctx, d, *name, optionalGroup(*group))
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, p.ID)
	return nil
}

func showCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("show")
	id := fs.String("id", "", "palette id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := required("id", *id); err != nil {
		return err
	}
	p, err := e.st.GetPalette(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "id:       %s\n", p.ID)
	fmt.Fprintf(e.out, "name:     %s\n", p.Name)
	fmt.Fprintf(e.out, "dims:     %s\n", p.Dimensions)
	fmt.Fprintf(e.out, "fill:     %s\n", p.Stats.Badge())
	if p.GroupID != nil {
		fmt.Fprintf(e.out, "group:    %s\n", *p.GroupID)
	}
	fmt.Fprintf(e.out, "created:  %s\n", formatMs(p.CreatedAt))
	fmt.Fprintf(e.out, "updated:  %s\n", formatMs(p.UpdatedAt))
	for z := p.Dimensions.Height - 1; z >= 0; z-- {
		fmt.Fprintf(e.out, "layer %d:\n", z)
		for y := p.Dimensions.Width - 1; y >= 0; y-- {
			var b strings.Builder
			b.WriteString("  ")
			for x := 0; x < p.Dimensions.Length; x++ {
				if p.Cubes.Has(grid.Coord{X: x, Y: y, Z: z}) {
					b.WriteByte('#')
				} else {
					b.WriteByte('.')
				}
			}
			fmt.Fprintln(e.out, b.String())
		}
	}
	return nil
}

func renameCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("rename")
	id := fs.String("id", "", "palette id")
	name := fs.String("name", "", "new name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := required("id", *id); err != nil {
		return err
	}
	if err := required("name", *name); err != nil {
		return err
	}
	p, err := e.st.GetPalette(ctx, *id)
	if err != nil {
		return err
	}
	p.Name = strings.TrimSpace(*name)
	_, err = e.st.UpdatePalette(ctx, p)
	return err
}

func deleteCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("delete")
	id := fs.String("id", "", "palette id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := required("id", *id); err != nil {
		return err
	}
	if err := e.st.DeletePalette(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "deleted", *id)
	return nil
}

func groupsCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("groups")
	add := fs.String("add", "", "create a group with this name")
	del := fs.String("delete", "", "delete the group with this id (its palettes become ungrouped)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	switch {
	case *add != "":
		g, err := e.st.CreateGroup(ctx, *add)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, g.ID)
		return nil
	case *del != "":
		if err := e.st.DeleteGroup(ctx, *del); err != nil {
			return err
		}
		fmt.Fprintln(e.out, "deleted", *del)
		return nil
	}
	groups, err := e.st.ListGroups(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.ID, g.Name, formatMs(g.CreatedAt))
	}
	return tw.Flush()
}

func assignCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("assign")
	id := fs.String("id", "", "palette id")
	group := fs.String("group", "", "group id (empty ungroups)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := required("id", *id); err != nil {
		return err
	}
	return e.st.AssignGroup(ctx, *id, optionalGroup(*group))
}

func exportCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("export")
	id := fs.String("id", "", "palette id")
	out := fs.String("out", "", "snapshot path (default ./data/snapshots/<id>.snap.zst)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := required("id", *id); err != nil {
		return err
	}
	p, err := e.st.GetPalette(ctx, *id)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = filepath.Join("data", "snapshots", p.ID+".snap.zst")
	}
	snap := snapshot.PaletteV1{
		Header:       snapshot.Header{Version: snapshot.Version, PaletteID: p.ID, ExportedAt: time.Now().UTC().UnixMilli()},
		Name:         p.Name,
		Dimensions:   p.Dimensions,
		ExtraCartons: p.ExtraCartons,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.GroupID != nil {
		snap.GroupID = *p.GroupID
	}
	snap.FromOccupancy(p.Cubes)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return err
	}
	fmt.Fprintln(e.out, path)
	return nil
}

func importCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("import")
	in := fs.String("in", "", "snapshot path")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := required("in", *in); err != nil {
		return err
	}
	snap, err := snapshot.ReadSnapshot(*in)
	if err != nil {
		return err
	}
	cubes, err := snap.Cubes()
	if err != nil {
		return err
	}
	p := store.Palette{
		ID:           snap.Header.PaletteID,
		Name:         snap.Name,
		Dimensions:   snap.Dimensions,
		Cubes:        cubes,
		ExtraCartons: snap.ExtraCartons,
		CreatedAt:    snap.CreatedAt,
		UpdatedAt:    snap.UpdatedAt,
	}
	if g := optionalGroup(snap.GroupID); g != nil {
		// A group from another database may not exist here.
		if _, err := e.st.GetGroup(ctx, *g); err == nil {
			p.GroupID = g
		}
	}
	p, err = e.st.ImportPalette(ctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "imported %s (%s)\n", p.ID, p.Stats.Badge())
	return nil
}

func historyCmd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("history")
	id := fs.String("id", "", "palette id")
	limit := fs.Int("n", 0, "show only the last n edits")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := required("id", *id); err != nil {
		return err
	}
	entries, err := editlog.ReadEntries(editlog.PaletteDir(e.editsDir, *id))
	if err != nil {
		return err
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[len(entries)-*limit:]
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tOP\tCOORD\tCHANGED\tPRESENT")
	for _, en := range entries {
		coord := "-"
		if en.Op == editlog.OpAdd || en.Op == editlog.OpRemove {
			coord = grid.Coord{X: en.X, Y: en.Y, Z: en.Z}.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%d\n", formatMs(en.AtMs), en.Op, coord, en.Changed, en.Present)
	}
	return tw.Flush()
}

func formatMs(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
