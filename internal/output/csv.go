package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

// CSVColumns is the header row of the public-instance report, in order.
var CSVColumns = []string{
	"Profile", "AccountId", "Region", "InstanceId", "Name", "State",
	"VPC", "Subnet", "PrivateIp", "PublicIp", "PublicDns", "SecurityGroups",
	"IamInstanceProfile", "RouteTable",
}

// CSVFileName returns the dated report file name for now,
// e.g. public_ec2_instances_2024-05-01.csv.
func CSVFileName(now time.Time) string {
	return fmt.Sprintf("public_ec2_instances_%s.csv", now.Format("2006-01-02"))
}

// WriteCSV writes the header followed by one record per row.
func WriteCSV(w io.Writer, rows []models.ClassificationRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, csvRecord(r))
	}
	return writeRecords(w, CSVColumns, records)
}

// WriteCSVFile creates dir if needed and writes rows to the dated report file
// inside it, returning the file's path.
func WriteCSVFile(dir string, rows []models.ClassificationRow, now time.Time) (string, error) {
	return WriteFile(dir, CSVFileName(now), func(w io.Writer) error {
		return WriteCSV(w, rows)
	})
}

// WriteFile creates dir if needed and writes name inside it with write,
// returning the file's path.
func WriteFile(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", herrors.New(herrors.ErrOutput, "create output directory",
			map[string]interface{}{"dir": dir}, err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", herrors.New(herrors.ErrOutput, "create report file",
			map[string]interface{}{"path": path}, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return "", herrors.New(herrors.ErrOutput, "write report file",
			map[string]interface{}{"path": path}, err)
	}
	return path, f.Close()
}

// writeRecords writes header followed by records as CSV.
func writeRecords(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

func csvRecord(r models.ClassificationRow) []string {
	return []string{
		r.Profile,
		r.AccountID,
		r.Region,
		r.InstanceID,
		r.Name,
		r.State,
		r.VpcID,
		r.SubnetID,
		r.PrivateIP,
		r.PublicIP,
		r.PublicDNS,
		r.SecurityGroups,
		r.IAMInstanceProfileARN,
		r.RouteTableID,
	}
}
