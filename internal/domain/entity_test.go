package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAffiliationKind(t *testing.T) {
	aff := Affiliation{Types: []TypedValue{{Type: "faculty", Source: "scienti"}}}
	assert.Equal(t, KindFaculty, aff.Kind())
	assert.True(t, aff.Kind().IsAffiliation())

	assert.Equal(t, Kind(""), Affiliation{}.Kind())
	assert.False(t, Kind("person").IsAffiliation())
}

func TestAffiliationInstitutionID(t *testing.T) {
	aff := Affiliation{Relations: []Relation{
		{ID: "g1", Types: []TypedValue{{Type: "group"}}},
		{ID: "i1", Types: []TypedValue{{Type: "education"}}},
	}}
	assert.Equal(t, "i1", aff.InstitutionID())

	assert.Empty(t, Affiliation{}.InstitutionID())
}

func TestAffiliationDisplayName(t *testing.T) {
	aff := Affiliation{Names: []LocalizedName{
		{Name: "University of Antioquia", Lang: "en"},
		{Name: "Universidad de Antioquia", Lang: "es"},
	}}
	assert.Equal(t, "Universidad de Antioquia", aff.DisplayName())

	onlyEnglish := Affiliation{Names: []LocalizedName{{Name: "MIT", Lang: "en"}}}
	assert.Equal(t, "MIT", onlyEnglish.DisplayName())

	assert.Empty(t, Affiliation{}.DisplayName())
}

func TestProductKindCollection(t *testing.T) {
	assert.Equal(t, CollectionWorks, ProductWork.Collection())
	assert.Equal(t, CollectionPatents, ProductPatent.Collection())
	assert.Equal(t, CollectionProjects, ProductProject.Collection())
	assert.Equal(t, CollectionOtherWorks, ProductOtherWork.Collection())

	assert.True(t, ProductWork.Valid())
	assert.False(t, ProductKind("thesis").Valid())
}

func TestRelationHasKind(t *testing.T) {
	rel := Relation{ID: "i1", Types: []TypedValue{{Type: "education"}, {Type: "parent"}}}
	assert.True(t, rel.HasKind(RelationEducation))
	assert.False(t, rel.HasKind(RelationGroup))
}
