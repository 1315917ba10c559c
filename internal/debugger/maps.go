package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wnxd/nacldbg/inferior"
)

// regions reads the current memory map of the process.
func (p *Process) regions() ([]inferior.Region, error) {
	f, err := os.Open(p.path("maps"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseMaps(f)
}

func parseMaps(r io.Reader) ([]inferior.Region, error) {
	var regions []inferior.Region
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		region, err := parseMapsLine(line)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, sc.Err()
}

// parseMapsLine parses "start-end perms offset dev inode [path]".
func parseMapsLine(line string) (inferior.Region, error) {
	var region inferior.Region
	var fields [5]string
	rest := line
	for i := range fields {
		rest = strings.TrimLeft(rest, " ")
		fields[i], rest, _ = strings.Cut(rest, " ")
	}
	start, end, ok := strings.Cut(fields[0], "-")
	if !ok {
		return region, fmt.Errorf("maps: bad range %q", fields[0])
	}
	begin, err := strconv.ParseUint(start, 16, 64)
	if err != nil {
		return region, fmt.Errorf("maps: bad range %q: %w", fields[0], err)
	}
	limit, err := strconv.ParseUint(end, 16, 64)
	if err != nil || limit < begin {
		return region, fmt.Errorf("maps: bad range %q", fields[0])
	}
	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return region, fmt.Errorf("maps: bad offset %q: %w", fields[2], err)
	}
	region.Addr = begin
	region.Size = limit - begin
	region.Offset = offset
	region.Prot = parseProt(fields[1])
	region.Path = strings.TrimSpace(rest)
	return region, nil
}

func parseProt(perms string) inferior.MemProt {
	prot := inferior.MEM_PROT_NONE
	for i, bit := range []inferior.MemProt{inferior.MEM_PROT_READ, inferior.MEM_PROT_WRITE, inferior.MEM_PROT_EXEC} {
		if i < len(perms) && perms[i] != '-' {
			prot |= bit
		}
	}
	return prot
}

// fileBacked reports whether the region maps a file rather than anonymous
// memory or a kernel pseudo mapping such as [stack].
func fileBacked(region inferior.Region) bool {
	return strings.HasPrefix(region.Path, "/") && !strings.HasSuffix(region.Path, " (deleted)")
}
