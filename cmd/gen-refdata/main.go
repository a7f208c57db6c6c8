// Command gen-refdata writes a small set of reference tables for local
// development and tests. Production deployments replace these with the full
// gazetteer and corporate authority exports.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

var tables = map[string]string{
	"places.tsv": `place_code	name	state_code
55000	New Orleans	22
63000	Seattle	53
50000	Washington	11
70000	Tacoma	53
36000	Jackson	28
48000	Memphis	47
51000	Nashville	47
2000	Atlanta	13
`,
	"city_hints.tsv": `name	state_abbrev	state_code	place_code
new orleans	LA	22	55000
seattle	WA	53	63000
memphis	TN	47	48000
atlanta	GA	13	2000
`,
	"org_authority.tsv": `name	authority_id
tennessee valley authority	n79066751
fisk university	n50063319
tuskegee institute	n79049242
works progress administration	n79055327
southern christian leadership conference	n79109057
`,
	"org_synonyms.tsv": `synonym	canonical	authority_id
tva	Tennessee Valley Authority	n79066751
fisk	Fisk University	n50063319
tuskegee	Tuskegee Institute	n79049242
wpa	Works Progress Administration	n79055327
sclc	Southern Christian Leadership Conference	n79109057
`,
}

func main() {
	dir := flag.String("dir", "refdata", "directory to write the tables into")
	force := flag.Bool("force", false, "overwrite existing tables")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for name, content := range tables {
		path := filepath.Join(*dir, name)
		if !*force {
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(os.Stderr, "skipping existing %s (use -force to overwrite)\n", path)
				continue
			}
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", path)
	}
}
