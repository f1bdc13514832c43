package pipeline

// CUE schemas the raw LM responses must satisfy before decoding. Model
// output is untrusted; validation happens in the llm package against these.

const extractSchema = `{
	terms: [...string]
}`

const defineSchema = `{
	definition:     string
	confidence:     number & >=0 & <=1
	related_terms?: [...string]
}`

const reviewSchema = `{
	issues: [...{
		term_name:         string
		issue_type:        string
		description:       string | *""
		should_exclude:    bool | *false
		exclusion_reason?: string
	}]
}`

const refineSchema = `{
	refined_definition: string
	confidence:         number & >=0 & <=1
}`
