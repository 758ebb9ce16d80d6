package cmd

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qualiscan/qsctl/pkg/version"
)

const releaseAPIBase = "https://api.github.com/repos/qualiscan/qsctl/releases"

type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

func NewUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update qsctl",
		RunE: func(cmd *cobra.Command, _ []string) error {
			versionTag, _ := cmd.Flags().GetString("version")
			return runUpdate(cmd, versionTag)
		},
	}

	cmd.AddCommand(
		newUpdateCheckCommand(),
		newUpdateRollbackCommand(),
	)
	cmd.Flags().String("version", "", "Update to specific version tag")
	cmd.Flags().Bool("yes", false, "Skip confirmation")
	cmd.Flags().Bool("dry-run", false, "Show actions without updating")
	return cmd
}

func newUpdateCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check for updates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			release, err := fetchRelease("")
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Current version: %s\n", version.Version)
			_, _ = fmt.Fprintf(w, "Latest version:  %s\n", release.TagName)
			return nil
		},
	}
}

func newUpdateRollbackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Rollback to the previous version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			oldPath := exe + ".old"
			if dryRun {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Would rollback to %s\n", oldPath)
				return nil
			}
			if _, err := os.Stat(oldPath); err != nil {
				return fmt.Errorf("rollback binary not found: %s", oldPath)
			}
			return replaceBinary(exe, oldPath)
		},
	}
	cmd.Flags().Bool("dry-run", false, "Show actions without rollback")
	return cmd
}

func runUpdate(cmd *cobra.Command, versionTag string) error {
	if strings.EqualFold(os.Getenv("QSCTL_DISABLE_UPDATE"), "true") {
		return errors.New("update disabled by QSCTL_DISABLE_UPDATE")
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	confirm, _ := cmd.Flags().GetBool("yes")

	release, err := fetchRelease(versionTag)
	if err != nil {
		return err
	}
	assetName := assetFileName()
	assetURL := findAssetURL(release.Assets, assetName)
	if assetURL == "" {
		return fmt.Errorf("asset not found for %s", assetName)
	}

	if dryRun {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Would download %s\n", assetURL)
		return nil
	}
	if !confirm {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updating to %s. Use --yes to skip confirmation.\n", release.TagName)
	}

	tmpDir, err := os.MkdirTemp("", "qsctl-update")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	archivePath := filepath.Join(tmpDir, assetName)
	if err := downloadFile(assetURL, archivePath); err != nil {
		return err
	}
	if err := verifyChecksumIfAvailable(release.Assets, assetName, archivePath); err != nil {
		return err
	}

	extracted, err := extractBinary(archivePath, tmpDir)
	if err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	return replaceBinary(exe, extracted)
}

// fetchRelease resolves the latest release, or a specific tag when given.
func fetchRelease(tag string) (*githubRelease, error) {
	url := releaseAPIBase + "/latest"
	if tag != "" {
		url = releaseAPIBase + "/tags/" + strings.TrimPrefix(tag, "v")
	}
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch release: %s", string(body))
	}
	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	return &release, nil
}

func assetFileName() string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("qsctl_windows_%s.zip", runtime.GOARCH)
	}
	return fmt.Sprintf("qsctl_%s_%s.tar.gz", runtime.GOOS, runtime.GOARCH)
}

func findAssetURL(assets []githubAsset, name string) string {
	for _, asset := range assets {
		if asset.Name == name {
			return asset.URL
		}
	}
	return ""
}

func downloadFile(url, path string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("download failed: %s", string(body))
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()
	_, err = io.Copy(out, resp.Body)
	return err
}

func verifyChecksumIfAvailable(assets []githubAsset, name, filePath string) error {
	url := findAssetURL(assets, name+".sha256")
	if url == "" {
		return nil
	}
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil
	}
	checksumBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	expected := strings.Fields(string(checksumBytes))
	if len(expected) == 0 {
		return errors.New("empty checksum file")
	}
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return err
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expected[0] {
		return fmt.Errorf("checksum mismatch: expected %s got %s", expected[0], actual)
	}
	return nil
}

func extractBinary(archivePath, destDir string) (string, error) {
	if strings.HasSuffix(archivePath, ".zip") {
		return extractZip(archivePath, destDir)
	}
	return extractTarGz(archivePath, destDir)
}

func extractTarGz(archivePath, destDir string) (string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()
	reader, err := gzip.NewReader(file)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = reader.Close()
	}()
	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		// Sanitize entry names against path traversal
		safeName := filepath.Base(header.Name)
		if safeName != "qsctl" {
			continue
		}
		outPath := filepath.Join(destDir, safeName)
		outFile, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(outFile, tarReader); err != nil {
			_ = outFile.Close()
			return "", err
		}
		_ = outFile.Close()
		return outPath, nil
	}
	return "", errors.New("qsctl binary not found in archive")
}

func extractZip(archivePath, destDir string) (string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = reader.Close()
	}()
	for _, file := range reader.File {
		// Sanitize entry names against zip slip
		if strings.ContainsAny(file.Name, `/\`) || strings.Contains(file.Name, "..") {
			continue
		}
		safeName := filepath.Base(file.Name)
		if safeName != "qsctl" && safeName != "qsctl.exe" {
			continue
		}
		return extractZipEntry(file, destDir, safeName)
	}
	return "", errors.New("qsctl binary not found in archive")
}

func extractZipEntry(file *zip.File, destDir, safeName string) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer func() {
		_ = rc.Close()
	}()
	outPath := filepath.Join(destDir, safeName)
	outFile, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(outFile, rc); err != nil {
		_ = outFile.Close()
		return "", err
	}
	_ = outFile.Close()
	return outPath, nil
}

// replaceBinary keeps the running binary as .old so rollback can restore it.
func replaceBinary(target, source string) error {
	backup := target + ".old"
	if err := os.Rename(target, backup); err != nil {
		return err
	}
	if err := copyFile(source, target); err != nil {
		_ = os.Rename(backup, target)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	input, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = input.Close()
	}()
	output, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	defer func() {
		_ = output.Close()
	}()
	_, err = io.Copy(output, input)
	return err
}
