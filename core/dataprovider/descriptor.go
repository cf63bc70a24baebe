package dataprovider

// Category groups providers for display.
type Category string

const (
	CategoryFiles   Category = "files"
	CategoryObjects Category = "objects"
	CategoryMemory  Category = "memory"
)

// Descriptor declares what a provider consumes and produces.
// Types may carry conversion arguments, e.g. "object?max_size=1048576".
type Descriptor struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	InType   string   `json:"in_type"`
	OutType  string   `json:"out_type"`
}
