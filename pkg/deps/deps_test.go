package deps

import "testing"

func TestCoordinateKey(t *testing.T) {
	tests := []struct {
		coord Coordinate
		want  string
	}{
		{Coordinate{Group: "org.apache.commons", Artifact: "commons-lang3", Version: "3.12.0"}, "org.apache.commons:commons-lang3"},
		{Coordinate{Group: " Org.Apache.Commons ", Artifact: "Commons-Lang3"}, "org.apache.commons:commons-lang3"},
	}
	for _, tt := range tests {
		if got := tt.coord.Key(); got != tt.want {
			t.Errorf("Key() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		in      string
		want    SymbolRef
		wantErr bool
	}{
		{
			in:   "StringUtils.isBlank",
			want: SymbolRef{Name: "isBlank", Enclosing: "StringUtils", Kind: KindMethod},
		},
		{
			in:   "StringUtils.isBlank()",
			want: SymbolRef{Name: "isBlank", Enclosing: "StringUtils", Kind: KindMethod},
		},
		{
			in:   "StringUtils",
			want: SymbolRef{Name: "StringUtils", Kind: KindClass},
		},
		{
			in: "org.apache.commons.lang3.StringUtils.isBlank",
			want: SymbolRef{
				Name:      "isBlank",
				Enclosing: "StringUtils",
				Package:   "org.apache.commons.lang3",
				Kind:      KindMethod,
			},
		},
		{
			in: "ObjectMapper.Builder",
			want: SymbolRef{
				Name:      "Builder",
				Enclosing: "ObjectMapper",
				Kind:      KindClass,
			},
		},
		{in: "", wantErr: true},
		{in: "a..b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSymbol(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSymbol(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSymbol(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSymbolRefString(t *testing.T) {
	r := SymbolRef{Name: "isBlank", Enclosing: "StringUtils"}
	if r.String() != "StringUtils.isBlank" {
		t.Errorf("String() = %q", r.String())
	}
	r = SymbolRef{Name: "StringUtils"}
	if r.String() != "StringUtils" {
		t.Errorf("String() = %q", r.String())
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"maven", DialectMaven, false},
		{"pom.xml", DialectMaven, false},
		{"POM", DialectMaven, false},
		{"gradle", DialectGradle, false},
		{"build.gradle", DialectGradle, false},
		{"build.gradle.kts", DialectGradle, false},
		{"sbt", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseDialect(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseDialect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDedupe(t *testing.T) {
	coords := []Coordinate{
		{Group: "org.apache", Artifact: "commons-lang", Version: "1"},
		{Group: "junit", Artifact: "junit", Version: "4"},
		{Group: "org.apache", Artifact: "commons-lang", Version: "2"}, // duplicate key
	}
	out := Dedupe(coords)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	// First occurrence wins.
	if out[0].Version != "1" {
		t.Errorf("first occurrence not preserved: %+v", out[0])
	}
	if out[1].Group != "junit" {
		t.Errorf("order not preserved: %+v", out[1])
	}
}

func TestParseErrorMessage(t *testing.T) {
	e := &ParseError{Dialect: DialectMaven, Line: 12, Message: "bad dependency element"}
	if e.Error() != "maven manifest: line 12: bad dependency element" {
		t.Errorf("Error() = %q", e.Error())
	}
	e = &ParseError{Dialect: DialectGradle, Message: "no dependencies block"}
	if e.Error() != "gradle manifest: no dependencies block" {
		t.Errorf("Error() = %q", e.Error())
	}
}
