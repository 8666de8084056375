package generator

import "fmt"

func buildLocationsPrompt(country, topic, audienceLevel string, count int) string {
	return fmt.Sprintf(
		`Generate %d specific locations in %s related to "%s" suitable for %s students. `+
			`For each location provide name, latitude, longitude, and brief explanation. `+
			`Return ONLY a valid JSON array without any markdown formatting or extra text:`,
		count, country, topic, audienceLevel,
	)
}

func buildTopicsPrompt(country, audienceLevel string, count int) string {
	return fmt.Sprintf(
		`Give %d topics for a Map based quiz application for %s on %s Maps. `+
			`The topics are related to some places to be spotted so that students can click on that spot and enter place name. `+
			`Ensure you give only the topic names separated with commas and not a single extra line.`,
		count, audienceLevel, country,
	)
}
