package mdstream

import (
	"sort"
	"strings"
)

// knownLanguages is the allow-list of fence language identifiers. Names
// follow chroma lexer aliases so a validated tag can be highlighted directly.
var knownLanguages = map[string]bool{
	"bash": true, "c": true, "clojure": true, "cmake": true, "cpp": true,
	"csharp": true, "css": true, "csv": true, "dart": true, "diff": true,
	"dockerfile": true, "elixir": true, "elm": true, "erlang": true,
	"fish": true, "fortran": true, "go": true, "graphql": true, "groovy": true,
	"haskell": true, "hcl": true, "html": true, "ini": true, "java": true,
	"javascript": true, "json": true, "jsx": true, "julia": true,
	"kotlin": true, "latex": true, "lua": true, "makefile": true,
	"markdown": true, "matlab": true, "nginx": true, "nix": true,
	"objectivec": true, "ocaml": true, "perl": true, "php": true,
	"plaintext": true, "powershell": true, "protobuf": true, "python": true,
	"r": true, "ruby": true, "rust": true, "scala": true, "scss": true,
	"shell": true, "sql": true, "swift": true, "terraform": true,
	"text": true, "toml": true, "tsx": true, "typescript": true, "vim": true,
	"vue": true, "xml": true, "yaml": true, "zig": true,
}

// languageAliases corrects common abbreviations and alternate spellings.
var languageAliases = map[string]string{
	"c#":      "csharp",
	"c++":     "cpp",
	"cc":      "cpp",
	"cjs":     "javascript",
	"console": "shell",
	"cs":      "csharp",
	"cxx":     "cpp",
	"docker":  "dockerfile",
	"ex":      "elixir",
	"exs":     "elixir",
	"golang":  "go",
	"h":       "c",
	"hpp":     "cpp",
	"hs":      "haskell",
	"htm":     "html",
	"js":      "javascript",
	"jsonc":   "json",
	"kt":      "kotlin",
	"make":    "makefile",
	"md":      "markdown",
	"mjs":     "javascript",
	"node":    "javascript",
	"objc":    "objectivec",
	"plain":   "plaintext",
	"proto":   "protobuf",
	"ps1":     "powershell",
	"py":      "python",
	"py3":     "python",
	"python3": "python",
	"rb":      "ruby",
	"rs":      "rust",
	"sh":      "bash",
	"tex":     "latex",
	"tf":      "terraform",
	"ts":      "typescript",
	"txt":     "text",
	"yml":     "yaml",
	"zsh":     "bash",
}

// minSuffixRepair is the shortest truncated tag repaired by suffix matching.
const minSuffixRepair = 3

// sortedLanguages is knownLanguages in lexical order, so suffix repair is
// deterministic.
var sortedLanguages = func() []string {
	names := make([]string, 0, len(knownLanguages))
	for name := range knownLanguages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// ValidateLanguage normalizes a fence info string to a known language name.
// Only the first word of the info string is considered. Tags that cannot be
// recognized or corrected yield "", meaning plain unhighlighted code.
func ValidateLanguage(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return ""
	}
	tag := fields[0]
	if knownLanguages[tag] {
		return tag
	}
	if name, ok := languageAliases[tag]; ok {
		return name
	}
	return repairSuffix(tag)
}

// repairSuffix maps a tag that lost its leading characters, such as "thon",
// to the unique known language ending in it.
func repairSuffix(tag string) string {
	if len(tag) < minSuffixRepair {
		return ""
	}
	match := ""
	for _, name := range sortedLanguages {
		if len(name) > len(tag) && strings.HasSuffix(name, tag) {
			if match != "" {
				return ""
			}
			match = name
		}
	}
	return match
}

// Languages returns every accepted language name and alias, sorted.
func Languages() []string {
	names := make([]string, 0, len(knownLanguages)+len(languageAliases))
	names = append(names, sortedLanguages...)
	for alias := range languageAliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// IsKnownLanguage reports whether name is in the allow-list.
func IsKnownLanguage(name string) bool {
	return knownLanguages[name]
}
