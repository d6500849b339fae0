package source

import "testing"

func TestParseRepo(t *testing.T) {
	tests := []struct {
		in      string
		want    Repo
		wantErr bool
	}{
		{"apache/commons-lang", Repo{"apache", "commons-lang"}, false},
		{"https://github.com/apache/commons-lang", Repo{"apache", "commons-lang"}, false},
		{"https://github.com/apache/commons-lang.git", Repo{"apache", "commons-lang"}, false},
		{"https://github.com/qos-ch/slf4j/", Repo{"qos-ch", "slf4j"}, false},
		{"  hutool/hutool  ", Repo{"hutool", "hutool"}, false},
		{"justowner", Repo{}, true},
		{"", Repo{}, true},
		{"/name", Repo{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepo(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRepo(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRepo(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRepoString(t *testing.T) {
	r := Repo{Owner: "apache", Name: "commons-lang"}
	if r.String() != "apache/commons-lang" {
		t.Errorf("String() = %q", r.String())
	}
	if r.IsZero() {
		t.Error("IsZero() = true for non-zero repo")
	}
	if !(Repo{}).IsZero() {
		t.Error("IsZero() = false for zero repo")
	}
}

func TestExtensionForLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"Java", "java"},
		{"java", "java"},
		{"Go", "go"},
		{"Python", "py"},
		{"TypeScript", "ts"},
		{"Brainfuck", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtensionForLanguage(tt.lang); got != tt.want {
			t.Errorf("ExtensionForLanguage(%q) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}
