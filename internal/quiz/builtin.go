package quiz

// Travel matches a user to a travel style. A three-way split is reported
// as undetermined.
var Travel = Quiz{
	ID:    "travel",
	Title: "Find Your Dream Travel Destination",
	Categories: []Category{
		{
			Key:         "beach_lover",
			Title:       "Beach Lover",
			Description: "You love the sound of waves, sunshine, and relaxing on sandy beaches. Consider visiting Bali, Maldives, or Santorini.",
			Image:       "https://images.unsplash.com/photo-1507525428034-b723cf961d3e",
		},
		{
			Key:         "nature_explorer",
			Title:       "Nature Explorer",
			Description: "You find peace in mountains, forests, and waterfalls. Try places like New Zealand, Patagonia, or Banff.",
			Image:       "https://images.unsplash.com/photo-1506744038136-46273834b3fb",
		},
		{
			Key:         "city_wanderer",
			Title:       "City Wanderer",
			Description: "You love the energy of city life, street food, and museums. Explore Tokyo, New York, or Paris.",
		},
	},
	Questions: []Question{
		{Text: "What kind of scenery do you prefer?", Options: []Option{
			{Text: "Beaches and oceans", Category: "beach_lover"},
			{Text: "Mountains and forests", Category: "nature_explorer"},
			{Text: "Skyscrapers and city lights", Category: "city_wanderer"},
		}},
		{Text: "What type of vacation do you enjoy?", Options: []Option{
			{Text: "Relaxing and sunbathing", Category: "beach_lover"},
			{Text: "Hiking and exploring nature", Category: "nature_explorer"},
			{Text: "Shopping and trying new restaurants", Category: "city_wanderer"},
		}},
		{Text: "Your ideal weekend looks like...", Options: []Option{
			{Text: "Lying on a beach with a good book", Category: "beach_lover"},
			{Text: "Camping or going on a trail", Category: "nature_explorer"},
			{Text: "Attending concerts or local events", Category: "city_wanderer"},
		}},
	},
	UndeterminedOnFullTie: true,
}

var Profession = Quiz{
	ID:    "profession",
	Title: "Which profession is right for you?",
	Categories: []Category{
		{
			Key:         "programmer",
			Title:       "Programmer",
			Description: "Programmers are digital solution builders. They love creating software, crafting algorithms, and turning coffee into code.",
		},
		{
			Key:         "designer",
			Title:       "Designer",
			Description: "Designers are visual visionaries. They know how to create harmony between aesthetics and function.",
		},
		{
			Key:         "data_scientist",
			Title:       "Data Scientist",
			Description: "Data Scientists turn data into stories. They excel at analyzing, predicting, and supporting big decisions.",
		},
	},
	Questions: []Question{
		{Text: "What is your favorite activity?", Options: []Option{
			{Text: "Solving puzzles", Category: "programmer"},
			{Text: "Creating art", Category: "designer"},
			{Text: "Analyzing data", Category: "data_scientist"},
		}},
		{Text: "What tools do you prefer to work with?", Options: []Option{
			{Text: "VS Code", Category: "programmer"},
			{Text: "Figma", Category: "designer"},
			{Text: "Google Colab", Category: "data_scientist"},
		}},
		{Text: "What motivates you the most?", Options: []Option{
			{Text: "Keep calm and debug the code", Category: "programmer"},
			{Text: "Design is thinking made visual", Category: "designer"},
			{Text: "In data we trust", Category: "data_scientist"},
		}},
	},
}

// All lists the built-in quizzes in display order.
func All() []*Quiz {
	return []*Quiz{&Travel, &Profession}
}

func Lookup(id string) (*Quiz, error) {
	for _, q := range All() {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, ErrNotFound
}
