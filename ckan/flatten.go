package ckan

import "github.com/lewisfm/camrete/catalog"

// FlatRelationship is one target within a FlatGroup, with its DFS ordinal
// already assigned.
type FlatRelationship struct {
	Ordinal          int32
	TargetName       string
	TargetVersion    string
	TargetVersionMin string
}

// FlatGroup is one top-level relationship descriptor flattened into its
// relation type, source ordinal, and member targets. Any-of descriptors
// nested within the original descriptor have already been flattened
// depth-first into Members.
type FlatGroup struct {
	Ordinal                 int32
	RelType                 catalog.RelationshipType
	ChoiceHelpText          string
	SuppressRecommendations bool
	Members                 []FlatRelationship
}

var relationshipLists = []struct {
	relType catalog.RelationshipType
	get     func(Release) []RelationshipDescriptor
}{
	{catalog.RelDepends, func(r Release) []RelationshipDescriptor { return r.Depends }},
	{catalog.RelRecommends, func(r Release) []RelationshipDescriptor { return r.Recommends }},
	{catalog.RelSuggests, func(r Release) []RelationshipDescriptor { return r.Suggests }},
	{catalog.RelSupports, func(r Release) []RelationshipDescriptor { return r.Supports }},
	{catalog.RelConflicts, func(r Release) []RelationshipDescriptor { return r.Conflicts }},
	{catalog.RelReplacedBy, func(r Release) []RelationshipDescriptor { return r.ReplacedBy }},
}

// FlattenRelationships converts a release's six keyed relationship lists
// into the flat group/member shape the catalog stores. Group ordinals form
// a contiguous [0..k) range across all six kinds, in the fixed order
// depends, recommends, suggests, supports, conflicts, replaced_by; member
// ordinals within a group are the depth-first position of any-of
// flattening.
func FlattenRelationships(r Release) []FlatGroup {
	var groups []FlatGroup
	var groupOrdinal int32

	for _, list := range relationshipLists {
		for _, desc := range list.get(r) {
			var members []FlatRelationship
			var memberOrdinal int32
			flattenMembers(desc, &members, &memberOrdinal)

			groups = append(groups, FlatGroup{
				Ordinal:                 groupOrdinal,
				RelType:                 list.relType,
				ChoiceHelpText:          desc.ChoiceHelpText,
				SuppressRecommendations: desc.SuppressRecommendations,
				Members:                 members,
			})
			groupOrdinal++
		}
	}

	return groups
}

// flattenMembers walks desc depth-first, appending direct targets to
// members in DFS order and recursing into any-of groups.
func flattenMembers(desc RelationshipDescriptor, members *[]FlatRelationship, ordinal *int32) {
	if desc.IsAnyOf() {
		for _, child := range desc.AnyOf {
			flattenMembers(child, members, ordinal)
		}
		return
	}

	targetVersion := desc.MaxVersion
	if targetVersion == "" {
		targetVersion = desc.Version
	}

	*members = append(*members, FlatRelationship{
		Ordinal:          *ordinal,
		TargetName:       desc.Name,
		TargetVersion:    targetVersion,
		TargetVersionMin: desc.MinVersion,
	})
	*ordinal++
}
