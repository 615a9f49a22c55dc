package listing

// PropertyTypes are the listing categories offered as filter options. The
// set is open: listings may carry other types.
var PropertyTypes = []string{"House", "Apartment", "Condo", "Townhouse", "Villa"}

// Features are the amenities offered as filter options.
var Features = []string{"Garage", "Pool", "Garden", "Fireplace", "Balcony", "Gym"}
