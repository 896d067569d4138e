package filtering

// Default returns the filters applied to search results, in order.
func Default() []Filter {
	return []Filter{
		NewCompanies(),
		NewExcludeFile(),
		NewSeenHistory(),
		NewATSFit(),
	}
}
