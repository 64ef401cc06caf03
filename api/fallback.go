package api

// Content served when no LLM provider credential is configured.
const (
	FallbackError  = "LLM API key not configured. Please add your provider API key to the .env file."
	FallbackExcuse = "يا عم أنا النهاردة تعبان أوي، مش قادر أشتغل دلوقتي"
	FallbackTips   = `**Overview**

This is a demo response. Please configure your LLM API key to generate real excuses.

**Techniques**
- Genuine expression of physical state
- Direct communication
- Setting clear boundaries

**Indicators**
- Straightforward language
- No elaborate justifications
- Focus on current condition

**Ethical Note**

Always be honest in professional communication. If you need time off or cannot complete work, communicate directly with your clients or team.

**Fun Tip**

In Egyptian culture, being direct about needing rest is often more respected than elaborate excuses!`
)
