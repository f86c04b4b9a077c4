package aifunc

// Function is a named directive the model is asked to evaluate. Directive reads
// like the signature and contract of a function whose result the model prints.
type Function struct {
	Name      string
	Directive string
}

var ConvertUserInputToGoal = Function{
	Name: "convert_user_input_to_goal",
	Directive: `convert_user_input_to_goal(user_request: string) -> string
Input: a user request for a website or web server.
Function: converts the user request into a short, summarized goal.
Output: the goal as a single sentence. Every output starts with "build a website that ...".
Example input: "I need a website that lets users login and logout. It needs to look fancy and accept payments."
Example output: "build a website that handles users logging in and logging out and accepts payments"`,
}

var PrintProjectScope = Function{
	Name: "print_project_scope",
	Directive: `print_project_scope(project_description: string) -> object
Input: a description of the website to build.
Function: decides what the backend needs, based only on the description.
Output: a JSON object with exactly these boolean fields:
{"is_crud_required": bool, "is_user_login_and_logout": bool, "is_external_urls_required": bool}
Print only the JSON object.`,
}

var PrintSiteURLs = Function{
	Name: "print_site_urls",
	Directive: `print_site_urls(project_description: string) -> array
Input: a description of the website to build.
Function: lists the public, free-to-use external API endpoints the website needs to fetch data from.
Output: a JSON array of URL strings, for example ["https://api.binance.com/api/v3/exchangeInfo"].
Print only the JSON array.`,
}

var PrintBackendWebserverCode = Function{
	Name: "print_backend_webserver_code",
	Directive: `print_backend_webserver_code(project_description_and_template: string) -> string
Input: a CODE TEMPLATE for a web server and a PROJECT_DESCRIPTION.
Function: rewrites the template so the server implements the project description.
The server keeps its data in a JSON file database, keeps the template's port and framework,
and replaces any example routes with routes the description needs.
Output: the complete source of the server entry point. No commentary, no Markdown.`,
}

var PrintImprovedWebserverCode = Function{
	Name: "print_improved_webserver_code",
	Directive: `print_improved_webserver_code(project_description_and_code: string) -> string
Input: the current CODE TEMPLATE of a web server and the PROJECT_DESCRIPTION fact sheet.
Function: improves the code so it fully covers the fact sheet: every route it implies exists,
external URLs are fetched where required, and nothing references undefined items.
Output: the complete improved source of the server entry point. No commentary, no Markdown.`,
}

var PrintFixedCode = Function{
	Name: "print_fixed_code",
	Directive: `print_fixed_code(broken_code_with_bugs: string) -> string
Input: BROKEN_CODE and the ERROR_BUGS the compiler reported for it.
Function: removes the bugs from the code and makes it compile.
Output: the complete fixed source. No commentary, no Markdown.`,
}

var PrintRESTAPIEndpoints = Function{
	Name: "print_rest_api_endpoints",
	Directive: `print_rest_api_endpoints(code_input: string) -> array
Input: the source of a web server.
Function: extracts every REST API endpoint the server exposes.
Output: a JSON array with one object per endpoint:
{"route": "/item/{id}", "is_route_dynamic": "true", "method": "get",
 "request_body": "None", "response": {"id": "number", "name": "string"}}
is_route_dynamic is the string "true" when the route has path parameters and "false" otherwise.
method is lowercase. Print only the JSON array.`,
}
