package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/music-catalog/internal/catalog"
	"github.com/franz/music-catalog/internal/util"
)

var showCmd = &cobra.Command{
	Use:   "show [collection-id|track-id]",
	Short: "Show catalog contents",
	Long: `Without arguments, list every collection with its track count.
With an entity id, show that collection (including its tracks) or track
in detail.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("orphans", false, "list only tracks not bound to any collection")
}

func runShow(cmd *cobra.Command, args []string) error {
	setupLogging()

	orphansOnly, _ := cmd.Flags().GetBool("orphans")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cat, err := db.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if orphansOnly {
		return showOrphans(cat)
	}
	if len(args) == 1 {
		return showEntity(cat, args[0])
	}
	return showOverview(cat)
}

func showOverview(cat *catalog.Catalog) error {
	collections := cat.Collections()
	if len(collections) == 0 && cat.CountTracks() == 0 {
		util.WarnLog("Catalog is empty. Run 'mcat import' first.")
		return nil
	}

	fmt.Printf("Catalog: %s collections, %s tracks\n\n",
		util.FormatCount(cat.CountCollections()), util.FormatCount(cat.CountTracks()))

	for _, c := range collections {
		tracks := cat.TracksOf(c.ID)
		fmt.Printf("  %-30s  %-28s  %2d tracks", c.ID, c.Title, len(tracks))
		if c.ReleaseDate != "" {
			fmt.Printf("  (%s)", c.ReleaseDate)
		}
		fmt.Println()
	}

	orphans := 0
	for _, t := range cat.Tracks() {
		if t.CollectionID == "" {
			orphans++
		}
	}
	if orphans > 0 {
		fmt.Printf("\n  %d orphan tracks (mcat show --orphans)\n", orphans)
	}
	return nil
}

func showEntity(cat *catalog.Catalog, id string) error {
	if c := cat.Collection(id); c != nil {
		fmt.Printf("Collection %s\n", c.ID)
		fmt.Printf("  Title:       %s\n", c.Title)
		if c.Artist != "" {
			fmt.Printf("  Artist:      %s\n", c.Artist)
		}
		if c.ReleaseDate != "" {
			fmt.Printf("  Released:    %s\n", c.ReleaseDate)
		}
		if c.UPC != "" {
			fmt.Printf("  UPC:         %s\n", c.UPC)
		}
		if len(c.Tags) > 0 {
			fmt.Printf("  Tags:        %v\n", c.Tags)
		}
		for _, l := range c.Links {
			fmt.Printf("  Link:        %s %s\n", l.Platform, l.URL)
		}
		tracks := cat.TracksOf(c.ID)
		fmt.Printf("  Tracks:      %d\n", len(tracks))
		for _, t := range tracks {
			fmt.Printf("    %2d. %-30s %s\n", t.TrackNo, t.Title, t.ID)
		}
		return nil
	}

	if t := cat.Track(id); t != nil {
		fmt.Printf("Track %s\n", t.ID)
		fmt.Printf("  Title:       %s\n", t.Title)
		if t.Artist != "" {
			fmt.Printf("  Artist:      %s\n", t.Artist)
		}
		if t.ISRC != "" {
			fmt.Printf("  ISRC:        %s\n", t.ISRC)
		}
		if t.CollectionID != "" {
			fmt.Printf("  Collection:  %s\n", t.CollectionID)
		} else {
			fmt.Printf("  Collection:  (orphan)\n")
		}
		if t.Duration != "" {
			fmt.Printf("  Duration:    %s\n", t.Duration)
		}
		if t.Lyrics != "" {
			fmt.Printf("  Lyrics:      %d bytes\n", len(t.Lyrics))
		}
		if len(t.StyleTags) > 0 {
			fmt.Printf("  Style:       %v\n", t.StyleTags)
		}
		for _, e := range t.Embeds {
			fmt.Printf("  Embed:       %s %s\n", e.Platform, e.URL)
		}
		return nil
	}

	return fmt.Errorf("%w: no collection or track with id %q", util.ErrNotFound, id)
}

func showOrphans(cat *catalog.Catalog) error {
	found := false
	for _, t := range cat.Tracks() {
		if t.CollectionID != "" {
			continue
		}
		found = true
		fmt.Printf("  %-30s  %s\n", t.ID, t.Title)
	}
	if !found {
		util.InfoLog("No orphan tracks")
	}
	return nil
}
