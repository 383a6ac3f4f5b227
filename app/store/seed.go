package store

import "github.com/hoffee-app/hoffee/app/models"

// fallbackCatalog is the built-in menu shown until the first successful
// backend refresh, and kept when every refresh fails (offline mode).
func fallbackCatalog() ([]models.Product, []models.Category) {
	categories := []models.Category{
		{ID: "coffee", Name: "Кофе и напитки"},
		{ID: "breakfast", Name: "Завтраки"},
		{ID: "main", Name: "Основные блюда"},
		{ID: "dessert", Name: "Десерты"},
	}

	products := []models.Product{
		{
			ID:          20,
			Name:        "Латте с соленой карамелью",
			Description: "Бежевый латте с миндальными хлопьями и завитком карамели. Идеальный баланс сладкого и соленого.",
			Price:       300,
			CategoryID:  "coffee",
			ImageURL:    "https://i.postimg.cc/gnTkgZdD/image.jpg",
			Modifiers: &models.Modifiers{
				Sizes: []models.ProductModifier{
					{ID: "m", Name: "M (300мл)", Price: 0},
					{ID: "l", Name: "L (400мл)", Price: 60},
				},
				Milks: []models.ProductModifier{
					{ID: "reg", Name: "Обычное", Price: 0},
					{ID: "alt", Name: "Альтернативное", Price: 50},
				},
				Syrups: []models.ProductModifier{},
			},
		},
		{
			ID:          18,
			Name:        "Малиновый латте",
			Description: "Нежный розовый латте с посыпкой из сублимированной малины. Ягодная нежность в каждом глотке.",
			Price:       300,
			CategoryID:  "coffee",
			ImageURL:    "https://i.postimg.cc/pm3rLn10/image.jpg",
			Modifiers: &models.Modifiers{
				Sizes: []models.ProductModifier{{ID: "m", Name: "300мл", Price: 0}},
				Milks: []models.ProductModifier{
					{ID: "reg", Name: "Обычное", Price: 0},
					{ID: "coconut", Name: "Кокосовое", Price: 50},
				},
				Syrups: []models.ProductModifier{},
			},
		},
		{
			ID:          19,
			Name:        "Горячий шоколад",
			Description: "Чашка густого горячего шоколада с бархатистой пенкой. Согревает и поднимает настроение.",
			Price:       250,
			CategoryID:  "coffee",
			ImageURL:    "https://i.postimg.cc/F1hRzvDv/image.jpg",
			Modifiers: &models.Modifiers{
				Sizes:  []models.ProductModifier{{ID: "s", Name: "200мл", Price: 0}},
				Milks:  []models.ProductModifier{},
				Syrups: []models.ProductModifier{{ID: "marshmallow", Name: "Маршмеллоу", Price: 30}},
			},
		},
		{
			ID:          17,
			Name:        "Матча латте",
			Description: "Зеленый матча латте с красивым латте-артом на пенке. Подается в широкой чашке на блюдце.",
			Price:       300,
			CategoryID:  "coffee",
			ImageURL:    "https://i.postimg.cc/TpRWzmzf/image.jpg",
			Modifiers: &models.Modifiers{
				Sizes: []models.ProductModifier{{ID: "m", Name: "300мл", Price: 0}},
				Milks: []models.ProductModifier{
					{ID: "reg", Name: "Обычное", Price: 0},
					{ID: "oat", Name: "Овсяное", Price: 50},
				},
				Syrups: []models.ProductModifier{},
			},
		},
		{
			ID:          14,
			Name:        "Авокадо-тост с лососем",
			Description: "Хрустящий тост с кремом из авокадо, ломтиками лосося, яйцом пашот и микрозеленью.",
			Price:       450,
			CategoryID:  "breakfast",
			ImageURL:    "https://i.postimg.cc/wttN5fYF/image.jpg",
		},
		{
			ID:          6,
			Name:        "Круассан с овощами",
			Description: "Свежий круассан, щедро наполненный огурцом, помидором, листьями салата и нежным сыром.",
			Price:       250,
			CategoryID:  "breakfast",
			ImageURL:    "https://i.postimg.cc/nsZ8B5mb/image.jpg",
		},
		{
			ID:          13,
			Name:        "Фруктовая каша",
			Description: "Питательная овсянка с клубникой, черникой, бананом, йогуртом, орехами и ломтиками сливы.",
			Price:       250,
			CategoryID:  "breakfast",
			ImageURL:    "https://i.postimg.cc/4HRpxzM4/image.jpg",
		},
		{
			ID:          3,
			Name:        "Говядина с овощами",
			Description: "Сочные кусочки жареной говядины с картофелем, помидорами черри, болгарским перцем и спаржей в фирменном соусе.",
			Price:       500,
			CategoryID:  "main",
			ImageURL:    "https://i.postimg.cc/KRRm8dPt/image.jpg",
		},
		{
			ID:          5,
			Name:        "Креветки в карри с рисом",
			Description: "Рассыпчатый рис с ароматным соусом карри и кусочками креветок, украшенный свежей зеленью.",
			Price:       450,
			CategoryID:  "main",
			ImageURL:    "https://i.postimg.cc/8kLdKT0V/image.jpg",
		},
	}

	return products, categories
}
