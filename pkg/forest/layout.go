package forest

import "slices"

// Rule is the extraction applied to a projected section list.
type Rule uint8

const (
	// RulePlain keeps the projected list as is.
	RulePlain Rule = iota
	// RuleSiphon moves anonymous-namespace entries behind a header.
	RuleSiphon
	// RuleLift uses the "All" entry's page as the section ref.
	RuleLift
)

// Section describes how one forest section is cut from the default tree.
type Section struct {
	// Name is the section label in the forest.
	Name string
	// Path is the label path of the source node in the default tree.
	Path []string
	// Sep joins ancestor labels in projected entries.
	Sep     string
	Filters []string
	Rule    Rule
}

// Extra is a single page appended to the section named by Layout.ExtrasOf.
type Extra struct {
	Name string
	Path []string
}

// Layout is the ordered section table the builder applies.
type Layout struct {
	Sections []Section
	// ExtrasOf names the section that receives Extras, when present.
	ExtrasOf string
	Extras   []Extra
	// LiftLabel is the entry RuleLift removes.
	LiftLabel string
}

// Labels are the generator's tree labels the layout looks up. Localized
// generators name them differently.
type Labels struct {
	Namespaces       string `yaml:"namespaces"`
	NamespaceList    string `yaml:"namespace_list"`
	NamespaceMembers string `yaml:"namespace_members"`
	Concepts         string `yaml:"concepts"`
	Classes          string `yaml:"classes"`
	ClassList        string `yaml:"class_list"`
	ClassIndex       string `yaml:"class_index"`
	ClassHierarchy   string `yaml:"class_hierarchy"`
	ClassMembers     string `yaml:"class_members"`
	Files            string `yaml:"files"`
	FileList         string `yaml:"file_list"`
	FileMembers      string `yaml:"file_members"`
	All              string `yaml:"all"`
}

// DefaultLabels returns the English labels.
func DefaultLabels() Labels {
	return Labels{
		Namespaces:       "Namespaces",
		NamespaceList:    "Namespace List",
		NamespaceMembers: "Namespace Members",
		Concepts:         "Concepts",
		Classes:          "Classes",
		ClassList:        "Class List",
		ClassIndex:       "Class Index",
		ClassHierarchy:   "Class Hierarchy",
		ClassMembers:     "Class Members",
		Files:            "Files",
		FileList:         "File List",
		FileMembers:      "File Members",
		All:              "All",
	}
}

// Merge returns l with empty fields taken from def.
func (l Labels) Merge(def Labels) Labels {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Labels{
		Namespaces:       pick(l.Namespaces, def.Namespaces),
		NamespaceList:    pick(l.NamespaceList, def.NamespaceList),
		NamespaceMembers: pick(l.NamespaceMembers, def.NamespaceMembers),
		Concepts:         pick(l.Concepts, def.Concepts),
		Classes:          pick(l.Classes, def.Classes),
		ClassList:        pick(l.ClassList, def.ClassList),
		ClassIndex:       pick(l.ClassIndex, def.ClassIndex),
		ClassHierarchy:   pick(l.ClassHierarchy, def.ClassHierarchy),
		ClassMembers:     pick(l.ClassMembers, def.ClassMembers),
		Files:            pick(l.Files, def.Files),
		FileList:         pick(l.FileList, def.FileList),
		FileMembers:      pick(l.FileMembers, def.FileMembers),
		All:              pick(l.All, def.All),
	}
}

// Forest section names.
const (
	SectionNamespaces   = "Namespaces"
	SectionGlobals      = "Globals"
	SectionConcepts     = "Concepts"
	SectionClasses      = "Classes"
	SectionClassMembers = "Class Members"
	SectionFiles        = "Files"
	SectionFileMembers  = "File Members"

	ExtraHierarchy = "[Hierarchy]"
	ExtraIndex     = "[Index]"
)

// DefaultLayout is the layout for an English Doxygen site.
func DefaultLayout() Layout {
	return NewLayout(DefaultLabels())
}

// NewLayout builds the standard section table over the given labels. Empty
// labels fall back to the English defaults.
func NewLayout(l Labels) Layout {
	l = l.Merge(DefaultLabels())
	return Layout{
		Sections: []Section{
			{Name: SectionNamespaces, Path: []string{l.Namespaces, l.NamespaceList}, Sep: "::", Filters: []string{"namespace"}, Rule: RuleSiphon},
			{Name: SectionGlobals, Path: []string{l.Namespaces, l.NamespaceMembers}, Sep: "::", Rule: RuleLift},
			{Name: SectionConcepts, Path: []string{l.Concepts}, Sep: "::", Filters: []string{"concept"}},
			{Name: SectionClasses, Path: []string{l.Classes, l.ClassList}, Sep: "::", Filters: []string{"class", "struct"}},
			{Name: SectionClassMembers, Path: []string{l.Classes, l.ClassMembers}, Sep: "::", Rule: RuleLift},
			{Name: SectionFiles, Path: []string{l.Files, l.FileList}, Sep: "/", Filters: []string{"_", "dir_"}},
			{Name: SectionFileMembers, Path: []string{l.Files, l.FileMembers}, Sep: "::", Rule: RuleLift},
		},
		ExtrasOf: SectionClasses,
		Extras: []Extra{
			{Name: ExtraHierarchy, Path: []string{l.Classes, l.ClassHierarchy}},
			{Name: ExtraIndex, Path: []string{l.Classes, l.ClassIndex}},
		},
		LiftLabel: l.All,
	}
}

// Clone deep-copies the layout.
func (l Layout) Clone() Layout {
	out := Layout{ExtrasOf: l.ExtrasOf, LiftLabel: l.LiftLabel}
	for _, s := range l.Sections {
		s.Path = slices.Clone(s.Path)
		s.Filters = slices.Clone(s.Filters)
		out.Sections = append(out.Sections, s)
	}
	for _, e := range l.Extras {
		e.Path = slices.Clone(e.Path)
		out.Extras = append(out.Extras, e)
	}
	return out
}
