package catalog

import "github.com/noah-isme/backend-irnby/internal/pricing"

// Course describes a purchasable training course.
type Course struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Image       string        `json:"image"`
	Price       pricing.Money `json:"price"`
	Rating      int           `json:"rating"`
	Description string        `json:"description"`
	Categories  []string      `json:"categories"`
	Level       string        `json:"level"`
	Location    string        `json:"location"`
	Duration    string        `json:"duration"`
	Featured    bool          `json:"featured"`
}

// courses is the static storefront catalog. There is no catalog datastore;
// the table ships with the binary.
var courses = []Course{
	{
		ID:          "zhiroszhiganie1",
		Title:       "Fat Burning I",
		Image:       "/course1.png",
		Price:       3000,
		Rating:      5,
		Description: "A specialized fat-burning workout program to kickstart weight loss and sculpt a toned physique.",
		Categories:  []string{"fitness", "weight-loss"},
		Level:       "beginner",
		Location:    "home",
		Duration:    "4 weeks",
		Featured:    true,
	},
	{
		ID:          "dlya-zala1",
		Title:       "Gym Workout I",
		Image:       "/course2.png",
		Price:       3000,
		Rating:      5,
		Description: "A comprehensive gym training program focused on full-body muscle development.",
		Categories:  []string{"fitness", "strength"},
		Level:       "beginner",
		Location:    "gym",
		Duration:    "6 weeks",
		Featured:    true,
	},
	{
		ID:          "funkcionalnyj-trening",
		Title:       "Functional 3D II",
		Image:       "/course3.png",
		Price:       4500,
		Rating:      5,
		Description: "An advanced functional training program designed to improve all-round physical performance and strengthen muscles across all planes of movement.",
		Categories:  []string{"fitness", "functional"},
		Level:       "advanced",
		Location:    "home",
		Duration:    "8 weeks",
		Featured:    false,
	},
	{
		ID:          "dlya-zala2",
		Title:       "Gym Workout II",
		Image:       "/course2.png",
		Price:       3500,
		Rating:      4,
		Description: "An advanced gym training program featuring challenging exercises and intense workout routines.",
		Categories:  []string{"fitness", "strength"},
		Level:       "intermediate",
		Location:    "gym",
		Duration:    "8 weeks",
		Featured:    false,
	},
	{
		ID:          "zhiroszhiganie2",
		Title:       "Fat Burning II",
		Image:       "/course1.png",
		Price:       3500,
		Rating:      4,
		Description: "An advanced fat-burning program with high-intensity interval training and complex workouts.",
		Categories:  []string{"fitness", "weight-loss", "hiit"},
		Level:       "intermediate",
		Location:    "home",
		Duration:    "6 weeks",
		Featured:    false,
	},
	{
		ID:          "rastyazhka",
		Title:       "Stretching & Pilates",
		Image:       "/course3.png",
		Price:       2500,
		Rating:      5,
		Description: "A comprehensive program to improve flexibility, joint mobility, and strengthen deep core muscles with Pilates elements.",
		Categories:  []string{"fitness", "flexibility", "pilates"},
		Level:       "beginner",
		Location:    "home",
		Duration:    "4 weeks",
		Featured:    true,
	},
}
