package llm

func (c *GroqClient) SetBaseURL(u string) { c.baseURL = u }

var ParseIntent = parseIntent

const MaxResponseBody = maxResponseBody
