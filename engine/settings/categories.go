package settings

import "strings"

type Category string

const (
	CategoryServer     Category = "Server"
	CategorySecurity   Category = "Security"
	CategoryDatabase   Category = "Database"
	CategoryUI         Category = "UI/Visibility"
	CategoryModels     Category = "Models/Specs"
	CategoryEndpoints  Category = "Endpoints"
	CategoryAgents     Category = "Agents"
	CategoryFiles      Category = "Files"
	CategoryRateLimits Category = "Rate Limits"
	CategoryAuth       Category = "Authentication"
	CategoryMemory     Category = "Memory"
	CategorySearch     Category = "Search"
	CategoryMCP        Category = "MCP"
	CategoryOCR        Category = "OCR"
	CategoryActions    Category = "Actions"
	CategoryTempChats  Category = "Temp Chats"
)

// Categories is the fixed display order of the validation report.
var Categories = []Category{
	CategoryServer,
	CategorySecurity,
	CategoryDatabase,
	CategoryUI,
	CategoryModels,
	CategoryEndpoints,
	CategoryAgents,
	CategoryFiles,
	CategoryRateLimits,
	CategoryAuth,
	CategoryMemory,
	CategorySearch,
	CategoryMCP,
	CategoryOCR,
	CategoryActions,
	CategoryTempChats,
}

// CategoryOf resolves the category owning a field path such as
// "webSearch.searchProvider" or "mcpServers[0].url".
func CategoryOf(path string) Category {
	head := path
	if i := strings.IndexAny(head, ".["); i >= 0 {
		head = head[:i]
	}
	return schemaIndex().categoryByTop[head]
}

// FieldsIn returns the leaf field paths belonging to a category.
func FieldsIn(c Category) []string {
	return schemaIndex().leavesByCategory[c]
}
