// Package prompts builds the system prompts sent to the model. Each agent
// task is described as a Capability: a named pseudo-function whose return
// value the model is asked to print.
package prompts

import (
	"fmt"
	"strings"
)

type Capability struct {
	Name        string
	Description string
}

var (
	ConvertUserInputToGoal = Capability{
		Name: "convert_user_input_to_goal",
		Description: `Input: a user request for a website or web service.
Goal: restate the request as a clear, complete goal for the developers who will build it.
Output: a single paragraph that starts with "build a website that ..." and names every
feature the user asked for. Do not add features the user did not ask for.`,
	}

	DecideProjectScope = Capability{
		Name: "decide_project_scope",
		Description: `Input: a project description.
Goal: decide which building blocks the project needs.
Output: a JSON object with exactly these boolean keys:
{"requires_crud": bool, "requires_login": bool, "requires_external_urls": bool}
requires_crud is true when data is created, read, updated or deleted.
requires_login is true when users must authenticate.
requires_external_urls is true when the project consumes third-party public APIs.`,
	}

	ListExternalURLs = Capability{
		Name: "list_external_urls",
		Description: `Input: a project description.
Goal: list the public API endpoints the project should call.
Output: a JSON array of fully qualified URL strings, for example
["https://api.example.com/v1/prices"]. Only list endpoints that answer an
unauthenticated GET. Output [] when there are none.`,
	}

	PrintBackendWebserverCode = Capability{
		Name: "print_backend_webserver_code",
		Description: `Input: a code template, a project description and a programming language.
Goal: write the complete backend webserver source for the project in that language,
using the template as the starting point for structure, libraries and style.
Output: only the source code of a single file. No commentary and no markdown fences.
Store data in a local JSON file when the project needs persistence.`,
	}

	ImproveBackendCode = Capability{
		Name: "improve_backend_code",
		Description: `Input: backend source code, the build output it produced and the language.
Goal: fix every error reported in the build output while keeping the behaviour intact.
Output: only the corrected source code of the whole file. No commentary and no markdown fences.`,
	}

	PrintFrontendCode = Capability{
		Name: "print_frontend_code",
		Description: `Input: a code template, a project description, the project scope and a language or framework.
Goal: write the complete frontend source for the project, using the template as the starting point.
Output: only the source code of a single file. No commentary and no markdown fences.`,
	}
)

// Wrap formats the capability and its input into the function printer
// instruction.
func Wrap(c Capability, input string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("FUNCTION: %s\n", c.Name))
	sb.WriteString(c.Description)
	sb.WriteString("\n\n")
	sb.WriteString("INSTRUCTION: You are a function printer. You ONLY print the result of the function\n")
	sb.WriteString("and NOTHING else. No commentary.\n\n")
	sb.WriteString("Here is the input of the function:\n")
	sb.WriteString(input)
	sb.WriteString("\n\nPrint out what the function will return.")
	return sb.String()
}

// CodePayload is the input for code generation capabilities.
func CodePayload(template, description, language string) string {
	var sb strings.Builder
	sb.WriteString("CODE TEMPLATE:\n")
	sb.WriteString(template)
	sb.WriteString("\n\nPROJECT DESCRIPTION:\n")
	sb.WriteString(description)
	sb.WriteString(fmt.Sprintf("\n\nLANGUAGE: %s", language))
	return sb.String()
}

// ScopedCodePayload adds the project scope flags to a code payload.
func ScopedCodePayload(template, description, language string, crud, login bool) string {
	return CodePayload(template, description, language) +
		fmt.Sprintf("\n\nSCOPE: requires_crud=%t requires_login=%t", crud, login)
}

// FixPayload is the input for ImproveBackendCode.
func FixPayload(code, buildOutput, language string) string {
	var sb strings.Builder
	sb.WriteString("CODE:\n")
	sb.WriteString(code)
	sb.WriteString("\n\nBUILD OUTPUT:\n")
	sb.WriteString(strings.TrimSpace(buildOutput))
	sb.WriteString(fmt.Sprintf("\n\nLANGUAGE: %s", language))
	return sb.String()
}
