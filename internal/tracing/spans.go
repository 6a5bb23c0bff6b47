package tracing

// Span names.
const (
	SpanLoad         = "loader.load"
	SpanLoadSheet    = "loader.load_sheet"
	SpanRegisterView = "stage.register_view"
	SpanShow         = "stage.show"
	SpanReloadSheet  = "app.reload_sheet"
)

// Span attribute keys.
const (
	AttrResourcePath = "resource.path"
	AttrViewName     = "view.name"
	AttrSheetName    = "stylesheet.name"
)
