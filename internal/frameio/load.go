package frameio

import (
	"os"

	"github.com/go-gota/gota/dataframe"
)

// LoadCSV reads a CSV file addressed by a path relative to the data
// root into a dataframe. Directory paths and paths escaping the root
// are rejected.
func LoadCSV(relPath string) (dataframe.DataFrame, error) {
	root, err := dataRoot()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	absPath, err := validatePath(root, relPath)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	fi, err := os.Stat(absPath)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if fi.IsDir() {
		return dataframe.DataFrame{}, PathError{Code: "ERR_NOT_A_FILE", Message: "path is a directory"}
	}

	f, err := os.Open(absPath)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}
