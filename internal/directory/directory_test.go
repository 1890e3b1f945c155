package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dev struct {
	name  string
	stack string
}

func (d dev) SearchFields() []string { return []string{d.name, d.stack} }
func (d dev) Stack() string { return d.stack }

type job struct {
	title, company, stack string
}

func (j job) SearchFields() []string { return []string{j.title, j.company, j.stack} }
func (j job) Stack() string { return j.stack }

func names(ds []dev) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.name
	}
	return out
}

func TestSplitTechStack(t *testing.T) {
	assert.Equal(t, []string{"React", "Node", "React"}, SplitTechStack(" React ,Node,, React"))
	assert.Nil(t, SplitTechStack(""))
	assert.Nil(t, SplitTechStack("   "))
	assert.Empty(t, SplitTechStack(" , ,"))
}

func TestBuildTagIndex(t *testing.T) {
	devs := []dev{
		{name: "Ann", stack: "React, Node"},
		{name: "Bo", stack: "Go,  Docker ,React"},
		{name: "Cy", stack: ""},
		{name: "Di", stack: "go, ,Docker"},
	}
	tags := BuildTagIndex(devs)
	assert.Equal(t, []string{"React", "Node", "Go", "Docker", "go"}, tags)
}

func TestBuildTagIndexEmpty(t *testing.T) {
	tags := BuildTagIndex([]dev(nil))
	require.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestBuildTagIndexIsDeterministic(t *testing.T) {
	devs := []dev{{stack: "b, a"}, {stack: "c, a"}}
	assert.Equal(t, BuildTagIndex(devs), BuildTagIndex(devs))
}

func TestFilterIdentity(t *testing.T) {
	devs := []dev{{name: "Ann", stack: "React"}, {name: "Bo"}, {name: "Cy", stack: "Go"}}
	assert.Equal(t, devs, Filter(devs, "", ""))
}

func TestFilterSearchTerm(t *testing.T) {
	devs := []dev{
		{name: "Ann", stack: "React, Node"},
		{name: "Bo", stack: "Go, Docker"},
	}
	assert.Equal(t, []string{"Ann"}, names(Filter(devs, "an", "")))
	assert.Equal(t, []string{"Bo"}, names(Filter(devs, "DOCKER", "")))
	assert.Empty(t, Filter(devs, "rust", ""))
}

func TestFilterSearchSpansFields(t *testing.T) {
	devs := []dev{{name: "Ann", stack: "React"}}
	assert.Len(t, Filter(devs, "ann react", ""), 1)
	assert.Empty(t, Filter(devs, "annreact", ""))
}

func TestFilterCaseInsensitive(t *testing.T) {
	devs := []dev{
		{name: "Ann", stack: "React, Node"},
		{name: "Reacher", stack: "Vue"},
		{name: "Bo", stack: "Go"},
	}
	assert.Equal(t, Filter(devs, "react", ""), Filter(devs, "REACT", ""))
	assert.Equal(t, []string{"Ann"}, names(Filter(devs, "REACT", "")))
}

func TestFilterTagIsSubstring(t *testing.T) {
	devs := []dev{
		{name: "Ann", stack: "Golang, Docker"},
		{name: "Bo", stack: "Django"},
		{name: "Cy", stack: "Rust"},
	}
	assert.Equal(t, []string{"Ann", "Bo"}, names(Filter(devs, "", "Go")))
	assert.Equal(t, []string{"Ann"}, names(Filter(devs, "", "docker")))
}

func TestFilterBothPredicates(t *testing.T) {
	devs := []dev{
		{name: "Ann", stack: "React, Node"},
		{name: "Anna", stack: "Go"},
		{name: "Bo", stack: "Go"},
	}
	assert.Equal(t, []string{"Anna"}, names(Filter(devs, "an", "Go")))
}

func TestFilterIdempotent(t *testing.T) {
	devs := []dev{{name: "Ann", stack: "React"}, {name: "Bo", stack: "Go"}, {name: "Dan", stack: "Go, React"}}
	once := Filter(devs, "n", "react")
	assert.Equal(t, once, Filter(once, "n", "react"))
	assert.Equal(t, once, Filter(devs, "n", "react"))
}

func TestFilterPreservesOrder(t *testing.T) {
	devs := []dev{{name: "Zed", stack: "Go"}, {name: "Amy", stack: "Go"}, {name: "Max", stack: "Go"}}
	assert.Equal(t, []string{"Zed", "Amy", "Max"}, names(Filter(devs, "", "go")))
}

func TestFilterJobs(t *testing.T) {
	jobs := []job{
		{title: "Backend Engineer", company: "Acme", stack: "Go, Postgres"},
		{title: "Frontend Dev", company: "Globex", stack: "React"},
	}
	out := Filter(jobs, "acme", "")
	require.Len(t, out, 1)
	assert.Equal(t, "Backend Engineer", out[0].title)
	assert.Len(t, Filter(jobs, "glob", "react"), 1)
	assert.Empty(t, Filter(jobs, "glob", "go"))
}

func TestToggleTag(t *testing.T) {
	selected := ToggleTag("", "Go")
	assert.Equal(t, "Go", selected)
	selected = ToggleTag(selected, "Go")
	assert.Equal(t, "", selected)
	assert.Equal(t, "React", ToggleTag("Go", "React"))
}
