package store

// DefaultStoreID is the store served when the public route has no store
// segment.
const DefaultStoreID = "sachacacao"

// DefaultCollection returns the seeded demo collection used on first run
// and as the in-memory fallback when the storage backend fails.
func DefaultCollection() Collection {
	return Collection{
		"sachacacao": {
			Name:         "Sacha Cacao",
			TemplateID:   TemplateClassic,
			SectionTitle: "Nuestros Chocolates Artesanales",
			HeroBanner: HeroBanner{
				ImageURL: "https://images.unsplash.com/photo-1578781429972-6f29a27b7b3b?q=80&w=2070&auto=format&fit=crop",
				Title:    "El Sabor Auténtico de la Amazonía",
				Subtitle: "Chocolates hechos con los mejores granos de cacao de origen único.",
			},
			Products: []Product{
				{ID: 1, Name: "Tableta de Chocolate 70%", Description: "Intenso y con notas frutales, ideal para paladares exigentes.", Price: 15.00, Image: "https://images.unsplash.com/photo-1558501970-24a7a4358826?q=80&w=1974&auto=format&fit=crop"},
				{ID: 2, Name: "Chocotejas de Pecanas", Description: "El dulce tradicional peruano con el mejor chocolate y pecanas seleccionadas.", Price: 2.50, Image: "https://images.unsplash.com/photo-1610452391694-95a4993f4129?q=80&w=1931&auto=format&fit=crop"},
				{ID: 3, Name: "Bombones Rellenos", Description: "Caja de 12 bombones con rellenos surtidos de frutos de la selva.", Price: 30.00, Image: "https://images.unsplash.com/photo-1582298242510-b34f7b3117b3?q=80&w=1935&auto=format&fit=crop"},
			},
			PaymentInfo: PaymentInfo{
				Phone:    "987 654 321",
				Name:     "Juanita Pérez",
				WhatsApp: "51987654321",
			},
			Theme: map[string]string{
				"primary":        "#5D4037",
				"secondary":      "#D7CCC8",
				"background":     "#F5F5F5",
				"text":           "#4E342E",
				"cardBackground": "#FFFFFF",
				"buttonText":     "#FFFFFF",
			},
			ChatInstruction: `Eres "CacaoBot", un asistente virtual amigable y experto en los chocolates de Sacha Cacao. Tu misión es ayudar a los clientes con sus preguntas sobre los productos, precios, ingredientes y el proceso artesanal. Eres entusiasta, conocedor y siempre usas un lenguaje cálido. La tienda se llama Sacha Cacao.`,
		},
		"cafedelvalle": {
			Name:         "Café del Valle",
			TemplateID:   TemplateModern,
			SectionTitle: "Café de Especialidad",
			HeroBanner: HeroBanner{
				ImageURL: "https://images.unsplash.com/photo-1559496417-e7f25cb247f3?q=80&w=1974&auto=format&fit=crop",
				Title:    "El Aroma que Despierta tus Sentidos",
				Subtitle: "Granos seleccionados y tostados a la perfección.",
			},
			Products: []Product{
				{ID: 1, Name: "Café Geisha Tostado Medio", Description: "Notas florales y cítricas, una experiencia única.", Price: 55.00, Image: "https://images.unsplash.com/photo-1511920183353-3c7c4217a2b5?q=80&w=1974&auto=format&fit=crop"},
				{ID: 2, Name: "Café Orgánico de la Selva", Description: "Cuerpo completo con notas a chocolate y nueces.", Price: 35.00, Image: "https://images.unsplash.com/photo-1599160533833-8a3c89220054?q=80&w=1974&auto=format&fit=crop"},
			},
			PaymentInfo: PaymentInfo{
				Phone:    "912 345 678",
				Name:     "Carlos Gomez",
				WhatsApp: "51912345678",
			},
			Theme: map[string]string{
				"primary":        "#1a4a3c",
				"secondary":      "#e4d8c7",
				"background":     "#f8f5f0",
				"text":           "#2c1e15",
				"cardBackground": "#FFFFFF",
				"buttonText":     "#FFFFFF",
			},
			ChatInstruction: `Eres "CaféBot", un barista virtual experto en café de especialidad de Café del Valle. Tu tono es sofisticado pero accesible. Asesora a los clientes sobre perfiles de sabor, métodos de preparación y orígenes del café.`,
		},
	}
}
