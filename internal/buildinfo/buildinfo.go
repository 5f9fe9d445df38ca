// Package buildinfo holds build metadata. BuildTag and Time are set at link
// time:
//
//	go build -ldflags "-X github.com/go-sod/spatial/internal/buildinfo.BuildTag=v1.2.0 \
//		-X github.com/go-sod/spatial/internal/buildinfo.Time=2020-08-01T10:00:00Z"
package buildinfo

import "fmt"

const Graffiti = "  ___ ___  _ _____ ___   _   _    \n / __| _ \\/_\\_   _|_ _| /_\\ | |   \n \\__ \\  _/ _ \\| |  | | / _ \\| |__ \n |___/_|/_/ \\_\\_| |___/_/ \\_\\____|\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "SPATIAL"
	Time     string = ""
)

type Info struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
	Time string `json:"time,omitempty"`
}

func Current() Info {
	return Info{Name: Name, Tag: BuildTag, Time: Time}
}

func (i Info) String() string {
	if i.Time == "" {
		return fmt.Sprintf("%s %s (dev build)", i.Name, i.Tag)
	}
	return fmt.Sprintf("%s %s (built %s)", i.Name, i.Tag, i.Time)
}

// Banner is printed once at startup.
func Banner() string {
	return Graffiti + Current().String() + "\n"
}
