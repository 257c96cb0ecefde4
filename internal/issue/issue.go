// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	RunnerNotFoundId Id = iota + 1
	ConfigLoadFailedId
	ConfigInvalidId
	EnvFileInvalidId
	HookFailedId
	PyprojectUnreadableId
	MarkersMissingId
	WorkflowParseErrorId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links, may be empty
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	runnerNotFoundIssue = &Issue{
		id: RunnerNotFoundId,
		mdMsg: `
# Test runner not found!

The configured test runner is not on your PATH, so no tests can run.

## Things you can try:
- Install the runner together with its coverage plugin:
~~~
$ pip install pytest pytest-cov
~~~

- Point at a different runner binary:
~~~
$ mnetest run --runner /path/to/pytest
~~~

- Or set it once in your config file:
~~~
$ mnetest config set runner pytest
~~~

- Verify your setup:
~~~
$ mnetest doctor
~~~`,
		extLinks: []HttpLink{"https://docs.pytest.org"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the mnetest configuration file.

## Configuration file locations:
- Linux: ~/.config/mnetest/config.cue
- macOS: ~/Library/Application Support/mnetest/config.cue
- Windows: %APPDATA%\mnetest\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ mnetest config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/mnetest/config.cue
~~~

## Example configuration:
~~~cue
runner: "pytest"
package: "mne"

ui: {
  color_scheme: "auto"
  verbose: false
}
~~~`,
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid configuration value!

The configuration file was read but contains a value the schema rejects.

## Things you can try:
- Check the error message above for the exact field and value
- Compare against the valid shape:
~~~cue
runner: "pytest"          // non-empty string
package: "mne"            // non-empty string
extra_args: ["-x"]        // list of strings
env_file: ".env"          // path, may be omitted
hooks: pre_run: "..."     // shell script, may be omitted

ui: {
  color_scheme: "auto"    // "auto" | "dark" | "light"
  verbose: false
}
~~~

- Reset to defaults:
~~~
$ mnetest config init
~~~`,
	}

	envFileInvalidIssue = &Issue{
		id: EnvFileInvalidId,
		mdMsg: `
# Could not load environment file!

The env file you pointed at is missing or contains a line that does not parse.

## Expected format:
~~~
# comment lines start with '#'
MNE_DATA=/data/mne
QT_QPA_PLATFORM="offscreen"
MNE_CI_KIND?=standard     # '?=' sets the value only when unset
~~~

## Things you can try:
- Check the reported line number for a missing '=' or an unterminated quote
- Pass the correct path:
~~~
$ mnetest run --env-file ./ci/.env
~~~`,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# Pre-run hook failed!

The hooks.pre_run script from your configuration exited with a non-zero
status, so the test run was not started.

## Things you can try:
- Run with verbose mode for the hook's output:
~~~
$ mnetest --verbose run
~~~

- Test the hook script in a shell
- Remove the hook from your config while debugging:
~~~
$ mnetest config set hooks.pre_run ""
~~~`,
	}

	pyprojectUnreadableIssue = &Issue{
		id: PyprojectUnreadableId,
		mdMsg: `
# Could not read pyproject.toml!

Marker checking needs the project's pyproject.toml to know which markers
are declared.

## Things you can try:
- Run from the project root, or point at the file:
~~~
$ mnetest plan --check --pyproject /path/to/pyproject.toml
~~~

- Skip marker checking by dropping --check

## Expected declaration shape:
~~~toml
[tool.pytest.ini_options]
markers = [
  "slowtest: mark a test as slow",
  "ultraslowtest: mark a test as ultraslow",
  "pgtest: mark a test as postgres test",
]
~~~`,
	}

	markersMissingIssue = &Issue{
		id: MarkersMissingId,
		mdMsg: `
# Markers not declared!

The derived marker expression references markers that pyproject.toml does
not declare. The runner will still accept the expression, but marker
typos would silently deselect nothing.

## Things you can try:
- Declare the markers:
~~~toml
[tool.pytest.ini_options]
markers = [
  "slowtest: mark a test as slow",
  "ultraslowtest: mark a test as ultraslow",
  "pgtest: mark a test as postgres test",
]
~~~

- Or run without --check if the project intentionally leaves them out`,
	}

	workflowParseErrorIssue = &Issue{
		id: WorkflowParseErrorId,
		mdMsg: `
# Failed to parse workflow file!

The workflow file could not be read as a GitHub Actions matrix.

## Expected structure:
~~~yaml
jobs:
  pytest:
    strategy:
      matrix:
        os: [ubuntu-22.04, macos-13, windows-2022]
        kind: [standard]
        include:
          - os: ubuntu-22.04
            kind: notebook
~~~

## Things you can try:
- Check the YAML syntax
- Name nonstandard matrix keys explicitly:
~~~
$ mnetest matrix .github/workflows/tests.yml --os-key runner --kind-key flavor
~~~`,
	}

	issues = map[Id]*Issue{
		runnerNotFoundIssue.Id():      runnerNotFoundIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		configInvalidIssue.Id():       configInvalidIssue,
		envFileInvalidIssue.Id():      envFileInvalidIssue,
		hookFailedIssue.Id():          hookFailedIssue,
		pyprojectUnreadableIssue.Id(): pyprojectUnreadableIssue,
		markersMissingIssue.Id():      markersMissingIssue,
		workflowParseErrorIssue.Id():  workflowParseErrorIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
