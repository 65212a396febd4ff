package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E019)
	// ============================================

	"E001": {
		Category:   CategoryRuntime,
		Message:    "No lazy handler defined",
		Detail:     "The element's tag has no activation handler in the engine's registry. This is an integration error: the binding was attached to an element type the engine cannot activate.",
		Suggestion: "Bind lazyload only to <img> elements, or register a handler for the tag with engine.Handlers().Register.",
	},
	"E002": {
		Category: CategoryDispatch,
		Message:  "Invalid event key",
		Detail:   "The id attribute is not set in the correct format. Event keys must be strings.",
	},
	"E003": {
		Category: CategoryDispatch,
		Message:  "Invalid event names",
		Detail:   "The event is not set in the correct format. Event names must be a space-separated string or a list of strings.",
	},
	"E004": {
		Category:   CategoryBinding,
		Message:    "Callbacks require an id attribute",
		Detail:     "Failed to register the callback function. Callbacks are keyed by the element id, so an element without one cannot receive events.",
		Suggestion: "Add an id attribute to the element that declares lazyload callbacks.",
	},
	"E005": {
		Category: CategoryBinding,
		Message:  "Element already bound",
		Detail:   "The element is already registered with this engine. Each element is initialised once.",
	},
	"E006": {
		Category: CategoryRuntime,
		Message:  "Engine closed",
		Detail:   "The engine has been closed and no longer accepts bindings.",
	},

	// ============================================
	// Config Errors (E020-E039)
	// ============================================

	"E020": {
		Category:   CategoryConfig,
		Message:    "Config not found",
		Detail:     "No lazyload.json, lazyload.yaml or lazyload.yml was found.",
		Suggestion: "Create a lazyload.yaml at the project root or pass --config.",
	},
	"E021": {
		Category: CategoryConfig,
		Message:  "Config parse failed",
		Detail:   "The configuration file is not valid JSON or YAML.",
	},
	"E022": {
		Category: CategoryConfig,
		Message:  "Invalid config",
		Detail:   "The configuration failed validation.",
	},

	// ============================================
	// Page Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryPage,
		Message:  "Page parse failed",
		Detail:   "The page document could not be parsed.",
	},
	"E041": {
		Category:   CategoryBinding,
		Message:    "Invalid binding declaration",
		Detail:     "The data-bind declaration could not be evaluated, or it has no lazyload entry.",
		Suggestion: "Use the form lazyload: {src: 'image.png', threshold: 50}.",
	},
	"E042": {
		Category: CategoryPage,
		Message:  "Invalid document tree",
		Detail:   "An element cannot be its own ancestor.",
	},

	// ============================================
	// Session Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategorySession,
		Message:  "Invalid session message",
		Detail:   "The client sent a message that could not be decoded.",
	},
	"E061": {
		Category: CategorySession,
		Message:  "Unknown element",
		Detail:   "The message references an element handle that was never mounted.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
