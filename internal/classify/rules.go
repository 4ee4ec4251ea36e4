package classify

// Main categories.
const (
	Dining      = "Dining"
	Shopping    = "Shopping"
	Transport   = "Transport"
	Lodging     = "Lodging"
	Medical     = "Medical"
	Education   = "Education"
	Finance     = "Finance"
	Government  = "Government"
	Leisure     = "Leisure"
	Attraction  = "Attraction"
	Religion    = "Religion"
	Services    = "Services"
	Residential = "Residential"
	Office      = "Office"
)

// defaultRules is the built-in priority table. Earlier entries win when an
// entity matches more than one rule. Exact rules for a key precede its wildcard.
var defaultRules = []Rule{
	// Dining
	{Key: "amenity", Value: "restaurant", Main: Dining, Sub: "Restaurant"},
	{Key: "amenity", Value: "fast_food", Main: Dining, Sub: "Fast Food"},
	{Key: "amenity", Value: "cafe", Main: Dining, Sub: "Cafe"},
	{Key: "amenity", Value: "bar", Main: Dining, Sub: "Bar"},
	{Key: "amenity", Value: "pub", Main: Dining, Sub: "Bar"},
	{Key: "amenity", Value: "food_court", Main: Dining, Sub: "Food Court"},

	// Transport
	{Key: "amenity", Value: "bus_station", Main: Transport, Sub: "Bus Station"},
	{Key: "amenity", Value: "ferry_terminal", Main: Transport, Sub: "Ferry Terminal"},
	{Key: "amenity", Value: "parking", Main: Transport, Sub: "Parking"},
	{Key: "amenity", Value: "fuel", Main: Transport, Sub: "Gas Station"},
	{Key: "amenity", Value: "charging_station", Main: Transport, Sub: "Charging Station"},
	{Key: "amenity", Value: "bicycle_rental", Main: Transport, Sub: "Bicycle Rental"},
	{Key: "amenity", Value: "taxi", Main: Transport, Sub: "Taxi Stand"},

	// Medical
	{Key: "amenity", Value: "hospital", Main: Medical, Sub: "Hospital"},
	{Key: "amenity", Value: "clinic", Main: Medical, Sub: "Clinic"},
	{Key: "amenity", Value: "pharmacy", Main: Medical, Sub: "Pharmacy"},
	{Key: "amenity", Value: "dentist", Main: Medical, Sub: "Dentist"},
	{Key: "amenity", Value: "doctors", Main: Medical, Sub: "Clinic"},
	{Key: "amenity", Value: "veterinary", Main: Medical, Sub: "Veterinary"},

	// Education
	{Key: "amenity", Value: "school", Main: Education, Sub: "School"},
	{Key: "amenity", Value: "university", Main: Education, Sub: "University"},
	{Key: "amenity", Value: "college", Main: Education, Sub: "College"},
	{Key: "amenity", Value: "kindergarten", Main: Education, Sub: "Kindergarten"},
	{Key: "amenity", Value: "library", Main: Education, Sub: "Library"},

	// Finance
	{Key: "amenity", Value: "bank", Main: Finance, Sub: "Bank"},
	{Key: "amenity", Value: "atm", Main: Finance, Sub: "ATM"},

	// Government
	{Key: "amenity", Value: "townhall", Main: Government, Sub: "Government Office"},
	{Key: "amenity", Value: "police", Main: Government, Sub: "Police"},
	{Key: "amenity", Value: "fire_station", Main: Government, Sub: "Fire Station"},
	{Key: "amenity", Value: "post_office", Main: Government, Sub: "Post Office"},
	{Key: "amenity", Value: "courthouse", Main: Government, Sub: "Courthouse"},

	// Leisure (amenity)
	{Key: "amenity", Value: "cinema", Main: Leisure, Sub: "Cinema"},
	{Key: "amenity", Value: "theatre", Main: Leisure, Sub: "Theatre"},
	{Key: "amenity", Value: "nightclub", Main: Leisure, Sub: "Nightclub"},
	{Key: "amenity", Value: "casino", Main: Leisure, Sub: "Casino"},

	// Religion
	{Key: "amenity", Value: "place_of_worship", Main: Religion, Sub: "Place of Worship"},

	// Services (amenity)
	{Key: "amenity", Value: "toilets", Main: Services, Sub: "Public Toilet"},
	{Key: "amenity", Value: "drinking_water", Main: Services, Sub: "Drinking Water"},
	{Key: "amenity", Value: "recycling", Main: Services, Sub: "Recycling"},
	{Key: "amenity", Value: "car_wash", Main: Services, Sub: "Car Wash"},
	{Key: "amenity", Value: "laundry", Main: Services, Sub: "Laundry"},

	// Transport (non-amenity)
	{Key: "railway", Value: "station", Main: Transport, Sub: "Train Station"},
	{Key: "railway", Value: "subway_entrance", Main: Transport, Sub: "Subway Station"},
	{Key: "station", Value: "subway", Main: Transport, Sub: "Subway Station"},
	{Key: "aeroway", Value: "aerodrome", Main: Transport, Sub: "Airport"},
	{Key: "aeroway", Value: "terminal", Main: Transport, Sub: "Terminal"},
	{Key: "public_transport", Value: "station", Main: Transport, Sub: "Bus Stop"},
	{Key: "highway", Value: "bus_stop", Main: Transport, Sub: "Bus Stop"},

	// Lodging
	{Key: "tourism", Value: "hotel", Main: Lodging, Sub: "Hotel"},
	{Key: "tourism", Value: "motel", Main: Lodging, Sub: "Motel"},
	{Key: "tourism", Value: "guest_house", Main: Lodging, Sub: "Guest House"},
	{Key: "tourism", Value: "hostel", Main: Lodging, Sub: "Hostel"},

	// Attraction
	{Key: "tourism", Value: "attraction", Main: Attraction, Sub: "Tourist Attraction"},
	{Key: "tourism", Value: "museum", Main: Attraction, Sub: "Museum"},
	{Key: "tourism", Value: "gallery", Main: Attraction, Sub: "Gallery"},
	{Key: "tourism", Value: "zoo", Main: Attraction, Sub: "Zoo"},
	{Key: "tourism", Value: "theme_park", Main: Attraction, Sub: "Theme Park"},
	{Key: "tourism", Value: "viewpoint", Main: Attraction, Sub: "Viewpoint"},
	{Key: "historic", Value: "monument", Main: Attraction, Sub: "Monument"},
	{Key: "historic", Value: "memorial", Main: Attraction, Sub: "Memorial"},
	{Key: "historic", Value: "castle", Main: Attraction, Sub: "Castle"},
	{Key: "historic", Value: "ruins", Main: Attraction, Sub: "Ruins"},

	// Leisure
	{Key: "leisure", Value: "park", Main: Leisure, Sub: "Park"},
	{Key: "leisure", Value: "playground", Main: Leisure, Sub: "Playground"},
	{Key: "leisure", Value: "sports_centre", Main: Leisure, Sub: "Sports Centre"},
	{Key: "leisure", Value: "stadium", Main: Leisure, Sub: "Stadium"},
	{Key: "leisure", Value: "swimming_pool", Main: Leisure, Sub: "Swimming Pool"},
	{Key: "leisure", Value: "fitness_centre", Main: Leisure, Sub: "Gym"},

	// Services (shop)
	{Key: "shop", Value: "hairdresser", Main: Services, Sub: "Hairdresser"},
	{Key: "shop", Value: "beauty", Main: Services, Sub: "Beauty Salon"},

	// Shopping
	{Key: "shop", Value: "supermarket", Main: Shopping, Sub: "Supermarket"},
	{Key: "shop", Value: "convenience", Main: Shopping, Sub: "Convenience Store"},
	{Key: "shop", Value: "mall", Main: Shopping, Sub: "Mall"},
	{Key: "shop", Value: "department_store", Main: Shopping, Sub: "Department Store"},
	{Key: "shop", Value: "clothes", Main: Shopping, Sub: "Clothing"},
	{Key: "shop", Value: "electronics", Main: Shopping, Sub: "Electronics"},
	{Key: "shop", Value: "mobile_phone", Main: Shopping, Sub: "Mobile Phones"},
	{Key: "shop", Value: "bakery", Main: Shopping, Sub: "Bakery"},
	{Key: "shop", Value: "butcher", Main: Shopping, Sub: "Butcher"},
	{Key: "shop", Value: "greengrocer", Main: Shopping, Sub: "Greengrocer"},
	{Key: "shop", Value: "pharmacy", Main: Shopping, Sub: "Pharmacy"},
	{Key: "shop", Value: "books", Main: Shopping, Sub: "Bookstore"},
	{Key: "shop", Value: "furniture", Main: Shopping, Sub: "Furniture"},
	{Key: "shop", Value: "hardware", Main: Shopping, Sub: "Hardware"},
	{Key: "shop", Value: Wildcard, Main: Shopping, Sub: "Shop"},

	// Office
	{Key: "office", Value: "government", Main: Government, Sub: "Government Office"},
	{Key: "office", Value: "company", Main: Office, Sub: "Company"},
	{Key: "building", Value: "office", Main: Office, Sub: "Office Building"},
	{Key: "building", Value: "commercial", Main: Office, Sub: "Commercial Building"},

	// Residential
	{Key: "building", Value: "apartments", Main: Residential, Sub: "Apartments"},
	{Key: "building", Value: "residential", Main: Residential, Sub: "Residential Building"},
	{Key: "landuse", Value: "residential", Main: Residential, Sub: "Residential Area"},
}
