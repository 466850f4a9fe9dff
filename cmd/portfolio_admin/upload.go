package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nathanieluriri/omas-portfolio/internal/apiclient"
	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/upload"
)

var uploadResumeCmd = &cobra.Command{
	Use:   "upload-resume <resume>",
	Short: "Store a resume so suggestions can reuse it",
	Args:  cobra.ExactArgs(1),
	RunE:  runUploadResume,
}

var uploadImagesCmd = &cobra.Command{
	Use:   "upload-images",
	Short: "Upload the images used for link previews and the browser tab",
	RunE:  runUploadImages,
}

var (
	imageSocial       string
	imageAnagramDark  string
	imageAnagramLight string
	imageFavicon      string
)

func init() {
	uploadImagesCmd.Flags().StringVar(&imageSocial, "social", "", "Social preview image")
	uploadImagesCmd.Flags().StringVar(&imageAnagramDark, "anagram-dark", "", "Anagram for dark mode")
	uploadImagesCmd.Flags().StringVar(&imageAnagramLight, "anagram-light", "", "Anagram for light mode")
	uploadImagesCmd.Flags().StringVar(&imageFavicon, "favicon", "", "Favicon")

	rootCmd.AddCommand(uploadResumeCmd)
	rootCmd.AddCommand(uploadImagesCmd)
}

func runUploadResume(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	file, err := upload.Open(args[0], upload.MaxResumeBytes)
	if err != nil {
		return err
	}
	doc, err := a.client.UploadResume(cmd.Context(), file)
	if err != nil {
		return a.explain(err)
	}

	a.printf("Resume uploaded: %s\n", file.Name)
	if url, ok, _ := content.Lookup(doc, "resumeUrl"); ok && url.Text() != "" {
		a.printf("Resume URL: %s\n", url.Text())
	}
	return nil
}

func runUploadImages(cmd *cobra.Command, _ []string) error {
	var (
		images apiclient.MetadataImages
		count  int
	)
	for _, part := range []struct {
		path   string
		target **upload.File
	}{
		{imageSocial, &images.SocialImage},
		{imageAnagramDark, &images.AnagramDark},
		{imageAnagramLight, &images.AnagramLight},
		{imageFavicon, &images.Favicon},
	} {
		if part.path == "" {
			continue
		}
		file, err := upload.Open(part.path, upload.MaxImageBytes)
		if err != nil {
			return err
		}
		*part.target = file
		count++
	}
	if count == 0 {
		return fmt.Errorf("pass at least one of --social, --anagram-dark, --anagram-light, --favicon")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	urls, err := a.client.UploadMetadataImages(cmd.Context(), images)
	if err != nil {
		return a.explain(err)
	}

	fields := make([]string, 0, len(urls))
	for field := range urls {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		a.printf("%s: %s\n", field, urls[field])
	}
	return nil
}
