package types

import "strings"

// Language represents a supported programming language configuration
// used by the judge system.
type Language struct {
	// Name is the canonical identifier of the language.
	Name string `json:"name"`

	// Extension is the default file extension for source files.
	Extension string `json:"extension"`

	// Version indicates the compiler or interpreter version the executor
	// provides.
	Version string `json:"version"`

	// TimeMultiplier is a factor applied to challenge time limits for
	// this language.
	TimeMultiplier float64 `json:"time_multiplier"`
}

// DefaultLanguages returns the language set supported by the default
// executor deployment.
func DefaultLanguages() []Language {
	return []Language{
		{Name: "Java", Extension: ".java", Version: "21", TimeMultiplier: 2.0},
		{Name: "Python", Extension: ".py", Version: "3.12", TimeMultiplier: 3.0},
		{Name: "JavaScript", Extension: ".js", Version: "node22", TimeMultiplier: 3.0},
		{Name: "C++", Extension: ".cpp", Version: "g++ 14", TimeMultiplier: 1.0},
		{Name: "Go", Extension: ".go", Version: "1.25", TimeMultiplier: 1.5},
	}
}

// FindLanguage looks up a language by name, case-insensitively.
func FindLanguage(languages []Language, name string) (Language, bool) {
	name = strings.TrimSpace(name)
	for _, lang := range languages {
		if strings.EqualFold(lang.Name, name) {
			return lang, true
		}
	}
	return Language{}, false
}
