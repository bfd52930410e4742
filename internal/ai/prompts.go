package ai

import (
	"fmt"
	"strings"

	"github.com/lmartins/obsidian-sync/internal/domain"
)

// promptTemplate is a system instruction plus a user instruction template.
// Every user template demands a JSON response with title, content and tags
// so the parser can validate one shape for all categories.
type promptTemplate struct {
	System       string
	UserTemplate string
}

const responseShapeHint = `RESPONSE FORMAT (JSON only, no prose outside the JSON object):
{
    "title": "Note title",
    "content": "# Title\n\nMarkdown content...",
    "tags": ["tag1", "tag2"],
    "category": "suggested_category",
    "metadata": {}
}`

var promptTemplates = map[domain.Category]promptTemplate{
	domain.CategoryInbox: {
		System: "You are an expert at organizing information and producing well-structured notes.",
		UserTemplate: `Analyze the following text and turn it into a well-structured Markdown note.

GENERAL INSTRUCTIONS:
1. Create a clear, descriptive title
2. Organize the content with an appropriate heading hierarchy
3. Extract relevant tags (at most 5)
4. Identify the key information
5. Preserve the original tone and context

` + responseShapeHint + `

TEXT TO PROCESS:
%s`,
	},

	domain.CategoryIdeas: {
		System: "You are an expert at brainstorming and developing creative ideas.",
		UserTemplate: `Turn the following text into a structured IDEA note.

SPECIAL FOCUS FOR IDEAS:
1. Identify the central concept
2. Explore possible developments
3. Suggest connections to other topics
4. Propose next steps

EXPECTED STRUCTURE:
- A memorable title
- A clear description of the main idea
- Bullet points with developments
- A "Possible Connections" section
- A "Next Steps" list

` + responseShapeHint + `

TEXT TO PROCESS:
%s`,
	},

	domain.CategoryTasks: {
		System: "You are an expert in productivity and task management.",
		UserTemplate: `Convert the following text into a structured TASK list.

SPECIAL FOCUS FOR TASKS:
1. Identify specific, measurable actions
2. Extract any mentioned deadlines
3. Identify people involved
4. Order by priority
5. Use Obsidian checkbox syntax (- [ ] task)

` + responseShapeHint + `

TEXT TO PROCESS:
%s`,
	},

	domain.CategoryArticles: {
		System: "You are an expert at analyzing and summarizing articles and long-form content.",
		UserTemplate: `Process the following ARTICLE / LONG-FORM CONTENT.

SPECIAL FOCUS FOR ARTICLES:
1. Write an executive summary
2. Extract the main key points
3. Identify the central arguments
4. List important quotes
5. Suggest topics for further reading

` + responseShapeHint + `

TEXT TO PROCESS:
%s`,
	},

	domain.CategoryMeetings: {
		System: "You are an expert at writing clear, actionable meeting notes.",
		UserTemplate: `Turn the following text into structured MEETING notes.

SPECIAL FOCUS FOR MEETINGS:
1. Identify participants and date if mentioned
2. Summarize the decisions made
3. List action items with owners
4. Capture open questions

` + responseShapeHint + `

TEXT TO PROCESS:
%s`,
	},

	domain.CategoryReferences: {
		System: "You are an expert at cataloguing reference material and quotations.",
		UserTemplate: `Turn the following text into a REFERENCE note.

SPECIAL FOCUS FOR REFERENCES:
1. Identify the source, author and publication date if mentioned
2. Preserve quotations verbatim
3. Summarize why this material is worth keeping
4. Suggest related topics

` + responseShapeHint + `

TEXT TO PROCESS:
%s`,
	},
}

// templateFor returns the prompt pair for a category, falling back to inbox
func templateFor(category domain.Category) promptTemplate {
	if tpl, ok := promptTemplates[category]; ok {
		return tpl
	}
	return promptTemplates[domain.CategoryInbox]
}

// buildUserPrompt renders the user template for the text and appends
// preference hints.
func buildUserPrompt(tpl promptTemplate, text string, prefs *domain.AIPreferences) string {
	prompt := fmt.Sprintf(tpl.UserTemplate, text)

	if prefs == nil {
		return prompt
	}

	if len(prefs.PreferredTags) > 0 {
		prompt += "\nPREFERRED TAGS: " + strings.Join(prefs.PreferredTags, ", ")
	}

	if prefs.MarkdownStyle != "" {
		prompt += "\nMARKDOWN STYLE: " + prefs.MarkdownStyle
	}

	switch prefs.CreativityLevel {
	case domain.CreativityCreative:
		prompt += "\n\nBE CREATIVE AND INNOVATIVE IN HOW YOU STRUCTURE THE NOTE."
	case domain.CreativityConservative:
		prompt += "\n\nKEEP THE STRUCTURE SIMPLE AND DIRECT."
	}

	return prompt
}

// fallbackTags maps each category to the tag set used by the degraded path
var fallbackTags = map[domain.Category][]string{
	domain.CategoryInbox:      {"inbox", "to_process"},
	domain.CategoryIdeas:      {"ideas", "brainstorm"},
	domain.CategoryTasks:      {"tasks", "todo"},
	domain.CategoryArticles:   {"articles", "reading"},
	domain.CategoryMeetings:   {"meetings", "notes"},
	domain.CategoryReferences: {"references", "reading"},
}
