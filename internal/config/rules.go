package config

// Compiled-in rule tables. These mirror the shipped config/config.yml; the
// YAML copies exist so operators can tune rules without a rebuild.

func DefaultTechRoles() []string {
	return []string{
		`\bsoftware\b`, `\bengineer\b`, `\bdeveloper\b`, `\bdev\b`, `\bfrontend\b`, `\bbackend\b`, `\bfullstack\b`,
		`\bdata\b`, `\bscientist\b`, `\banalyst\b`, `\bmachine\s+learning\b`, `\bml\b`, `\bai\b`, `\bartificial\b`,
		`\bnlp\b`, `\bdevops\b`, `\bsre\b`, `\bsite\s+reliability\b`, `\binfrastructure\b`, `\bcloud\b`,
		`\bsecurity\b`, `\bcyber\b`, `\barchitect\b`, `\bproduct\b`, `\bpm\b`, `\bdesigner\b`, `\bux\b`, `\bui\b`,
		`\bqa\b`, `\bquality\b`, `\btesting\b`, `\bautomation\b`, `\bmobile\b`, `\bandroid\b`, `\bios\b`,
		`\bswift\b`, `\bkotlin\b`, `\bembedded\b`, `\bfirmware\b`, `\bhardware\b`, `\bsystem\b`, `\badmin\b`,
		`\btech\b`, `\btechnical\b`, `\bresearcher\b`, `\bspecialist\b`, `\bplatform\b`, `\breliability\b`,
		`\bobservability\b`, `\bcryptography\b`, `\bblockchain\b`, `\bweb3\b`, `\bdatabase\b`, `\bsql\b`,
		`\bbig\s+data\b`, `\bdistributed\b`, `\bperformance\b`, `\btools\b`, `\bintern\b`, `\bstaff\b`,
		`\bprincipal\b`, `\blead\b`, `\bhead\b`, `\bvp\b`, `\bcto\b`,
	}
}

func DefaultNonTechTitles() []string {
	return []string{
		`\bsales\b`, `\bmarketing\b`, `\bcustomer\s+success\b`, `\baccount\s+manager\b`,
		`\bhuman\s+resources\b`, `\bhr\b`, `\brecruiting\b`, `\brecruiter\b`, `\bfinance\b`,
		`\blegal\b`, `\baccountant\b`, `\bauditor\b`, `\bpayroll\b`, `\bworkplace\b`,
		`\bfacilities\b`, `\boffice\s+manager\b`, `\badministrator\b`, `\breceptionist\b`,
		`\bclerk\b`, `\boperator\b`, `\blogistics\b`, `\bwarehouse\b`, `\bsupply\s+chain\b`,
		`\btreasury\b`, `\btax\b`, `\bpublic\s+relations\b`, `\bcomms\b`, `\bcommunications\b`,
	}
}

// Japanese-market defaults: JLPT level codes, fluency phrasing, and the
// language's own script all signal a local-language requirement.
func DefaultLanguageRequiredMarkers() []string {
	return []string{
		`jlpt`,
		`\bn1\b`,
		`\bn2\b`,
		`\bn3\b`,
		`japanese[:\s]+business`,
		`japanese[:\s]+fluent`,
		`native[:\s]+japanese`,
		`fluent[:\s]+japanese`,
		`business[:\s]+level[:\s]+japanese`,
		`日本語`,
		`ビジネスレベル`,
		`ネイティブレベル`,
		`流暢`,
		`japanese\s+proficiency`,
		`must\s+speak\s+japanese`,
		`requirement[:\s]+japanese`,
	}
}

func DefaultLanguageNotRequiredMarkers() []string {
	return []string{
		`no\s+japanese\s+required`,
		`japanese\s+not\s+required`,
		`english\s+only`,
		`english-only`,
		`working\s+language\s+is\s+english`,
		`primary\s+language\s+is\s+english`,
	}
}

func DefaultSkills() []string {
	return []string{
		"python", "java", "javascript", "typescript", "go", "rust", "c++",
		"react", "vue", "angular", "node.js", "django", "flask", "fastapi",
		"aws", "gcp", "azure", "docker", "kubernetes", "terraform",
		"postgresql", "mysql", "mongodb", "redis",
		"git", "ci/cd", "agile", "scrum",
		"machine learning", "deep learning", "nlp", "computer vision",
		"data science", "sql", "nosql",
	}
}
