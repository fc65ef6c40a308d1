package static

import _ "embed"

// SkillMd describes the chat API for AI clients.
//
//go:embed skill.md
var SkillMd string
