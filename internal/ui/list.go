package ui

import (
	"slices"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/arrx/internal/models"
	"github.com/desertthunder/arrx/internal/tasks"
)

var _ list.Item = fieldItem{}

// field identifies one editable add option.
type field int

const (
	fieldQualityProfile field = iota
	fieldRootFolder
	fieldMetadataProfile
	fieldSeriesType
	fieldMonitored
	fieldSearchOnAdd
)

// fieldsFor lists the options shown for kind, in display order.
func fieldsFor(kind models.Kind) []field {
	fields := []field{fieldQualityProfile, fieldRootFolder}
	switch kind {
	case models.Lidarr:
		fields = append(fields, fieldMetadataProfile)
	case models.Sonarr:
		fields = append(fields, fieldSeriesType)
	}
	return append(fields, fieldMonitored, fieldSearchOnAdd)
}

// searchLabel names the search-on-add option the way each backend does.
func searchLabel(kind models.Kind) string {
	switch kind {
	case models.Radarr:
		return "Search for movie"
	case models.Sonarr:
		return "Search for missing episodes"
	default:
		return "Search for missing albums"
	}
}

// fieldItem wraps a single option and its current value to implement [list.Item].
type fieldItem struct {
	field field
	label string
	value string
}

func (i fieldItem) FilterValue() string { return i.label }
func (i fieldItem) Title() string       { return i.label }
func (i fieldItem) Description() string { return i.value }

func newFieldItem(f field, snap tasks.Snapshot) fieldItem {
	sel, opts := snap.Selection, snap.Options
	switch f {
	case fieldQualityProfile:
		name := "none available"
		if i := slices.IndexFunc(opts.QualityProfiles, func(p models.QualityProfile) bool { return p.ID == sel.QualityProfileID }); i >= 0 {
			name = opts.QualityProfiles[i].Name
		}
		return fieldItem{field: f, label: "Quality profile", value: name}
	case fieldRootFolder:
		path := sel.RootFolderPath
		if path == "" {
			path = "none available"
		}
		return fieldItem{field: f, label: "Root folder", value: path}
	case fieldMetadataProfile:
		name := "none available"
		if i := slices.IndexFunc(opts.MetadataProfiles, func(p models.MetadataProfile) bool { return p.ID == sel.MetadataProfileID }); i >= 0 {
			name = opts.MetadataProfiles[i].Name
		}
		return fieldItem{field: f, label: "Metadata profile", value: name}
	case fieldSeriesType:
		return fieldItem{field: f, label: "Series type", value: sel.SeriesType}
	case fieldMonitored:
		return fieldItem{field: f, label: "Monitored", value: checkbox(sel.Monitored)}
	default:
		return fieldItem{field: f, label: searchLabel(snap.Descriptor.Kind), value: checkbox(sel.SearchOnAdd)}
	}
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// fieldItems renders every option of snap.
func fieldItems(snap tasks.Snapshot) []list.Item {
	fields := fieldsFor(snap.Descriptor.Kind)
	items := make([]list.Item, len(fields))
	for i, f := range fields {
		items[i] = newFieldItem(f, snap)
	}
	return items
}

// step moves i by delta within n entries, wrapping at both ends. A missing index starts from the first entry.
func step(i, delta, n int) int {
	if i < 0 {
		return 0
	}
	return ((i+delta)%n + n) % n
}

// cycle returns sel with the value of f moved by delta through the loaded options. Checkbox fields flip.
func cycle(f field, delta int, sel models.Selection, opts tasks.Options) models.Selection {
	switch f {
	case fieldQualityProfile:
		if n := len(opts.QualityProfiles); n > 0 {
			i := slices.IndexFunc(opts.QualityProfiles, func(p models.QualityProfile) bool { return p.ID == sel.QualityProfileID })
			sel.QualityProfileID = opts.QualityProfiles[step(i, delta, n)].ID
		}
	case fieldRootFolder:
		if n := len(opts.RootFolders); n > 0 {
			i := slices.IndexFunc(opts.RootFolders, func(r models.RootFolder) bool { return r.Path == sel.RootFolderPath })
			sel.RootFolderPath = opts.RootFolders[step(i, delta, n)].Path
		}
	case fieldMetadataProfile:
		if n := len(opts.MetadataProfiles); n > 0 {
			i := slices.IndexFunc(opts.MetadataProfiles, func(p models.MetadataProfile) bool { return p.ID == sel.MetadataProfileID })
			sel.MetadataProfileID = opts.MetadataProfiles[step(i, delta, n)].ID
		}
	case fieldSeriesType:
		if n := len(opts.SeriesTypes); n > 0 {
			sel.SeriesType = opts.SeriesTypes[step(slices.Index(opts.SeriesTypes, sel.SeriesType), delta, n)]
		}
	case fieldMonitored:
		sel.Monitored = !sel.Monitored
	case fieldSearchOnAdd:
		sel.SearchOnAdd = !sel.SearchOnAdd
	}
	return sel
}
