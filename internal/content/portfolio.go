package content

// EmptyPortfolio returns the skeleton document used when a user has no portfolio yet.
func EmptyPortfolio() Value {
	return Object(
		M("navItems", Array()),
		M("hero", Object(
			M("name", String("")),
			M("title", String("")),
			M("bio", Array()),
			M("availability", Object(
				M("label", String("")),
				M("status", String("")),
			)),
		)),
		M("experience", Array()),
		M("projects", Array()),
		M("skillGroups", Array()),
		M("contacts", Array()),
		M("footer", Object(
			M("copyright", String("")),
			M("tagline", String("")),
		)),
		M("resumeUrl", String("/resume.pdf")),
	)
}
