package locale

var labels = map[Locale]map[string]string{
	EN: {
		"personal-info":     "Personal details",
		"profile":           "Profile",
		"education":         "Education",
		"experience":        "Experience",
		"skills":            "Skills",
		"languages":         "Languages",
		"interests":         "Interests",
		"references":        "References",
		"socials":           "Social links",
		"recipient":         "Recipient",
		"date-subject":      "Date and subject",
		"introduction":      "Introduction",
		"current-situation": "Current situation",
		"motivation":        "Motivation",
		"conclusion":        "Conclusion",
		"custom":            "Additional section",
		"present":           "Present",
	},
	FR: {
		"personal-info":     "Informations personnelles",
		"profile":           "Profil",
		"education":         "Formation",
		"experience":        "Expérience professionnelle",
		"skills":            "Compétences",
		"languages":         "Langues",
		"interests":         "Centres d'intérêt",
		"references":        "Références",
		"socials":           "Réseaux sociaux",
		"recipient":         "Destinataire",
		"date-subject":      "Date et objet",
		"introduction":      "Introduction",
		"current-situation": "Situation actuelle",
		"motivation":        "Motivation",
		"conclusion":        "Conclusion",
		"custom":            "Section personnalisée",
		"present":           "Aujourd'hui",
	},
}

// Label 返回区块的内置标题；未知 key 先回退到英文，再回退到 key 本身。
func Label(key string, loc Locale) string {
	if l, ok := labels[loc][key]; ok {
		return l
	}
	if l, ok := labels[Default][key]; ok {
		return l
	}
	return key
}
