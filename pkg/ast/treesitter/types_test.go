package treesitter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

func TestSizedSpelling(t *testing.T) {
	tests := []struct {
		words []string
		want  string
	}{
		{[]string{"unsigned"}, "unsigned int"},
		{[]string{"unsigned", "long", "int"}, "unsigned long"},
		{[]string{"long", "long"}, "long long"},
		{[]string{"short", "int"}, "short"},
		{[]string{"signed", "char"}, "signed char"},
		{[]string{"unsigned", "char"}, "unsigned char"},
		{[]string{"long", "double"}, "long double"},
		{[]string{"signed"}, "int"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sizedSpelling(tt.words), tt.words)
	}
}

func TestDeclaratorSpellings(t *testing.T) {
	intT := ast.Type{Spelling: "int", Canonical: "int"}
	charT := ast.Type{Spelling: "char", Canonical: "char"}

	assert.Equal(t, "int *", pointerTo(intT, nil).Spelling)
	assert.Equal(t, "int **", pointerTo(pointerTo(intT, nil), nil).Spelling)
	assert.Equal(t, "char *const", pointerTo(charT, []string{"const"}).Spelling)
	assert.Equal(t, "int &", referenceTo(intT, "&").Spelling)
	assert.Equal(t, "char[100]", arrayOf(charT, "100").Spelling)
	assert.Equal(t, "int[2][3]", arrayOf(arrayOf(intT, "3"), "2").Spelling)
	assert.Equal(t, "int (*)[3]", pointerTo(arrayOf(intT, "3"), nil).Spelling)

	assert.Equal(t, "char *", decay(arrayOf(charT, "16")).Spelling)
	assert.Equal(t, "int (*)[3]", decay(arrayOf(arrayOf(intT, "3"), "2")).Spelling)
	assert.Equal(t, "int", decay(intT).Spelling)
}

func TestIsClassType(t *testing.T) {
	assert.True(t, isClassType(ast.Type{Canonical: "std::basic_string<char>"}))
	assert.True(t, isClassType(ast.Type{Canonical: "const DataArray"}))
	assert.False(t, isClassType(ast.Type{Canonical: "unsigned long"}))
	assert.False(t, isClassType(ast.Type{Canonical: "DataArray *"}))
	assert.False(t, isClassType(ast.Type{Canonical: "char[4]"}))
	assert.False(t, isClassType(ast.Type{Canonical: "Color", Enum: &ast.EnumInfo{Name: "Color"}}))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "std::vector<int>", normalizeName("std :: vector< int >"))
	assert.Equal(t, "std::cin", normalizeName("::std::cin"))
	assert.Equal(t, "unsigned int", normalizeName("unsigned  int"))
	assert.Equal(t, "cin", lastComponent("std::cin"))
	assert.Equal(t, "vector", lastComponent("std::vector<int>"))
}
