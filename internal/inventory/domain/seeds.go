package domain

// SeedCategories returns the categories present on a cold start.
func SeedCategories() []*Category {
	return []*Category{
		{ID: 1, Name: "전자제품", Color: "#2196F3", Icon: "💻"},
		{ID: 2, Name: "가구", Color: "#4CAF50", Icon: "🪑"},
		{ID: 3, Name: "의류", Color: "#9C27B0", Icon: "👕"},
		{ID: 4, Name: "식품", Color: "#FF9800", Icon: "🍎"},
		{ID: 5, Name: "도서", Color: "#795548", Icon: "📚"},
		{ID: 6, Name: "문구류", Color: "#607D8B", Icon: "✏️"},
		{ID: 7, Name: "주방용품", Color: "#F44336", Icon: "🍳"},
		{ID: 8, Name: "욕실용품", Color: "#00BCD4", Icon: "🧼"},
		{ID: 9, Name: "운동용품", Color: "#8BC34A", Icon: "⚽"},
		{ID: 10, Name: "기타", Color: "#9E9E9E", Icon: "📦"},
	}
}

// SeedLocations returns the root rooms present on a cold start.
func SeedLocations() []*Location {
	names := []string{"거실", "침실", "주방", "화장실", "베란다"}
	out := make([]*Location, len(names))
	for i, n := range names {
		out[i] = &Location{ID: i + 1, Name: n, Level: 0, Type: TypeForLevel(0)}
	}
	return out
}

// Seed id counters
const (
	SeedNextCategoryID = 11
	SeedNextLocationID = 6
)
