package placeholder

import (
	"cvforge/internal/document"
	"cvforge/internal/locale"
)

// 标量字段示例值，key 为 "<section>.<field>"。
var scalars = map[locale.Locale]map[string]string{
	locale.EN: {
		"personal-info.firstName":  "Jane",
		"personal-info.lastName":   "Doe",
		"personal-info.jobTitle":   "Product Designer",
		"personal-info.email":      "jane.doe@example.com",
		"personal-info.phone":      "+1 555 0100",
		"personal-info.address":    "12 Market Street",
		"personal-info.city":       "Boston",
		"personal-info.postalCode": "02108",
		"profile.text":             "Designer with eight years of experience shipping consumer products, from early research to polished interfaces.",

		"recipient.company":    "Acme Corporation",
		"recipient.name":       "Hiring Manager",
		"recipient.address":    "500 Harbor Avenue",
		"recipient.city":       "Boston",
		"recipient.postalCode": "02110",

		"date-subject.date":     "March 3, 2025",
		"date-subject.subject":  "Application for the Product Designer position",
		"date-subject.location": "Boston",

		"introduction.text":      "I am writing to apply for the Product Designer role advertised on your careers page.",
		"current-situation.text": "I currently lead the design of a mobile banking app used by two million customers.",
		"motivation.text":        "Your focus on accessible, well-crafted tools matches the way I like to work.",
		"conclusion.text":        "I would welcome the opportunity to discuss how I can contribute to your team.",
	},
	locale.FR: {
		"personal-info.firstName":  "Marie",
		"personal-info.lastName":   "Dupont",
		"personal-info.jobTitle":   "Designer produit",
		"personal-info.email":      "marie.dupont@exemple.fr",
		"personal-info.phone":      "06 12 34 56 78",
		"personal-info.address":    "12 rue de la République",
		"personal-info.city":       "Lyon",
		"personal-info.postalCode": "69002",
		"profile.text":             "Designer avec huit ans d'expérience dans la conception de produits grand public, de la recherche utilisateur aux interfaces finales.",

		"recipient.company":    "Société Exemple",
		"recipient.name":       "Service recrutement",
		"recipient.address":    "5 avenue des Champs",
		"recipient.city":       "Paris",
		"recipient.postalCode": "75008",

		"date-subject.date":     "3 mars 2025",
		"date-subject.subject":  "Candidature au poste de designer produit",
		"date-subject.location": "Lyon",

		"introduction.text":      "Je me permets de vous adresser ma candidature pour le poste de designer produit.",
		"current-situation.text": "Je dirige actuellement la conception d'une application bancaire utilisée par deux millions de clients.",
		"motivation.text":        "Votre attachement à des outils accessibles et soignés correspond à ma façon de travailler.",
		"conclusion.text":        "Je serais ravie d'échanger avec vous lors d'un entretien.",
	},
}

type lists struct {
	education  []document.Education
	experience []document.Experience
	skills     []document.Skill
	languages  []document.Language
	interests  []document.Interest
}

var listCatalog = map[locale.Locale]lists{
	locale.EN: {
		education: []document.Education{
			{Degree: "MSc Human-Computer Interaction", School: "Northeastern University", City: "Boston", StartDate: "2014", EndDate: "2016"},
			{Degree: "BA Graphic Design", School: "Rhode Island School of Design", City: "Providence", StartDate: "2010", EndDate: "2014"},
		},
		experience: []document.Experience{
			{Position: "Lead Product Designer", Company: "Northwind Bank", City: "Boston", StartDate: "2020", Current: true, Description: "Lead a team of four designers on the mobile app."},
			{Position: "UX Designer", Company: "Contoso", City: "New York", StartDate: "2016", EndDate: "2020", Description: "Redesigned onboarding and cut drop-off by a third."},
		},
		skills: []document.Skill{
			{Name: "User research", Level: 5},
			{Name: "Prototyping", Level: 4},
			{Name: "Design systems", Level: 4},
		},
		languages: []document.Language{
			{Name: "English", Level: "Native"},
			{Name: "Spanish", Level: "Professional"},
		},
		interests: []document.Interest{{Name: "Photography"}, {Name: "Running"}, {Name: "Ceramics"}},
	},
	locale.FR: {
		education: []document.Education{
			{Degree: "Master Design d'interaction", School: "Université Lyon 2", City: "Lyon", StartDate: "2014", EndDate: "2016"},
			{Degree: "Licence Arts appliqués", School: "École Estienne", City: "Paris", StartDate: "2011", EndDate: "2014"},
		},
		experience: []document.Experience{
			{Position: "Lead designer produit", Company: "Banque Exemple", City: "Lyon", StartDate: "2020", Current: true, Description: "Encadrement d'une équipe de quatre designers."},
			{Position: "Designer UX", Company: "Agence Pixel", City: "Paris", StartDate: "2016", EndDate: "2020", Description: "Refonte du parcours d'inscription."},
		},
		skills: []document.Skill{
			{Name: "Recherche utilisateur", Level: 5},
			{Name: "Prototypage", Level: 4},
			{Name: "Design system", Level: 4},
		},
		languages: []document.Language{
			{Name: "Français", Level: "Langue maternelle"},
			{Name: "Anglais", Level: "Courant"},
		},
		interests: []document.Interest{{Name: "Photographie"}, {Name: "Course à pied"}, {Name: "Céramique"}},
	},
}

func catalogFor(loc locale.Locale) (map[string]string, lists) {
	s, ok := scalars[loc]
	if !ok {
		s = scalars[locale.Default]
	}
	l, ok := listCatalog[loc]
	if !ok {
		l = listCatalog[locale.Default]
	}
	return s, l
}
