package cli

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/LBIT2016/trading-gamers/internal/api/response"
	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/services/listing"
	"github.com/LBIT2016/trading-gamers/internal/services/listingform"
)

func newListingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Marketplace listing commands",
	}

	cmd.AddCommand(newListingCreateCmd())
	cmd.AddCommand(newListingUpdateCmd())
	cmd.AddCommand(newListingDeleteCmd())
	cmd.AddCommand(newListingStatusCmd())
	cmd.AddCommand(newListingShowCmd())
	cmd.AddCommand(newListingListCmd())
	cmd.AddCommand(newListingMineCmd())

	return cmd
}

// listingFlags are the form fields shared by create and update
type listingFlags struct {
	title       string
	short       string
	description string
	listingType string
	category    string
	price       string
	condition   string
	location    string
	remote      bool
	contact     string
	tags        string
	imageURLs   []string
	imageFiles  []string
}

func (f *listingFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.title, "title", "", "Title")
	flags.StringVar(&f.short, "short", "", "Short description")
	flags.StringVar(&f.description, "description", "", "Detailed description")
	flags.StringVar(&f.listingType, "type", string(model.ListingTypeSell), "sell, buy, trade, offer-service, request-service")
	flags.StringVar(&f.category, "category", "", "Category for the listing type")
	flags.StringVar(&f.price, "price", "", "Price text, e.g. $20 or Negotiable")
	flags.StringVar(&f.condition, "condition", "", "new, like-new, good, fair, poor (items only)")
	flags.StringVar(&f.location, "location", "", "Location")
	flags.BoolVar(&f.remote, "remote", false, "Available remotely")
	flags.StringVar(&f.contact, "contact", "", "Contact information")
	flags.StringVar(&f.tags, "tags", "", "Comma separated tags")
	flags.StringArrayVar(&f.imageURLs, "image-url", nil, "Image URL (repeatable)")
	flags.StringArrayVar(&f.imageFiles, "image-file", nil, "Image file to upload (repeatable)")
}

func (f *listingFlags) form() model.ListingForm {
	return model.ListingForm{
		Title:               f.title,
		ShortDescription:    f.short,
		DetailedDescription: f.description,
		ListingType:         model.ListingType(f.listingType),
		Category:            model.Category(f.category),
		Price:               f.price,
		Condition:           model.Condition(f.condition),
		Location:            f.location,
		IsRemote:            f.remote,
		ContactInfo:         f.contact,
		Tags:                f.tags,
	}
}

// patch holds only the fields given on the command line
func (f *listingFlags) patch(flags *pflag.FlagSet) model.ListingPatch {
	var p model.ListingPatch
	setString := func(name string, dst **string, v string) {
		if flags.Changed(name) {
			*dst = &v
		}
	}
	setString("title", &p.Title, f.title)
	setString("short", &p.ShortDescription, f.short)
	setString("description", &p.DetailedDescription, f.description)
	setString("price", &p.Price, f.price)
	setString("location", &p.Location, f.location)
	setString("contact", &p.ContactInfo, f.contact)
	setString("tags", &p.Tags, f.tags)
	if flags.Changed("type") {
		t := model.ListingType(f.listingType)
		p.ListingType = &t
	}
	if flags.Changed("category") {
		c := model.Category(f.category)
		p.Category = &c
	}
	if flags.Changed("condition") {
		c := model.Condition(f.condition)
		p.Condition = &c
	}
	if flags.Changed("remote") {
		p.IsRemote = &f.remote
	}
	return p
}

func (f *listingFlags) images() ([]model.ImageSource, error) {
	sources := make([]model.ImageSource, 0, len(f.imageURLs)+len(f.imageFiles))
	for _, u := range f.imageURLs {
		sources = append(sources, model.FromURL(u))
	}
	for _, path := range f.imageFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		name := filepath.Base(path)
		sources = append(sources, model.FromFile(name, mime.TypeByExtension(filepath.Ext(name)), data))
	}
	return sources, nil
}

func newListingCreateCmd() *cobra.Command {
	var f listingFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new listing",
		Long: `Publish a new listing as the logged in user.

The form is checked page by page (basics, details, logistics, media) and the
first page with problems is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := f.images()
			if err != nil {
				return err
			}

			wizard := listingform.NewWizard()
			wizard.Input = listingform.Input{Form: f.form(), Images: sources}
			created, err := wizard.Submit(cmd.Context(), app.Listings)
			if err != nil {
				return err
			}

			out.Print(*created)
			return nil
		},
	}

	f.register(cmd.Flags())

	return cmd
}

func newListingUpdateCmd() *cobra.Command {
	var f listingFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := f.images()
			if err != nil {
				return err
			}

			updated, err := app.Listings.UpdateListing(cmd.Context(), model.ListingID(args[0]), f.patch(cmd.Flags()), sources)
			if err != nil {
				return err
			}

			out.Print(*updated)
			return nil
		},
	}

	f.register(cmd.Flags())

	return cmd
}

func newListingDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			if err := app.Listings.DeleteListing(cmd.Context(), model.ListingID(id)); err != nil {
				return err
			}

			out.PrintMessage(fmt.Sprintf("Deleted listing %s", id))
			return nil
		},
	}
}

func newListingStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Mark a listing active, pending, sold or inactive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.ListingID(args[0])

			if err := app.Listings.SetListingStatus(cmd.Context(), id, model.ListingStatus(args[1])); err != nil {
				return err
			}

			l, err := app.Listings.GetListingByID(id)
			if err != nil {
				return err
			}
			out.Print(*l)
			return nil
		},
	}
}

func newListingShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.Listings.GetListingByID(model.ListingID(args[0]))
			if err != nil {
				return err
			}

			out.Print(*l)
			return nil
		},
	}
}

func newListingListCmd() *cobra.Command {
	var (
		query, listingType, category, status, seller, tag, sort string
		remote                                                  bool
		minPrice, maxPrice                                      float64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Same parameters as the browse page
			values := url.Values{}
			set := func(key, v string) {
				if v != "" {
					values.Set(key, v)
				}
			}
			set("q", query)
			set("type", listingType)
			set("category", category)
			set("status", status)
			set("seller", seller)
			set("tag", tag)
			set("sort", sort)
			if remote {
				values.Set("remote", "true")
			}
			if cmd.Flags().Changed("min") {
				values.Set("min", strconv.FormatFloat(minPrice, 'f', -1, 64))
			}
			if cmd.Flags().Changed("max") {
				values.Set("max", strconv.FormatFloat(maxPrice, 'f', -1, 64))
			}

			filter, err := listing.FilterFromQuery(values)
			if err != nil {
				return err
			}

			out.Print(response.ListingsFrom(app.Listings.Search(filter)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Text to look for in title, descriptions and tags")
	cmd.Flags().StringVar(&listingType, "type", "", "Listing type")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().StringVar(&status, "status", "", "Status (default: any)")
	cmd.Flags().StringVar(&seller, "seller", "", "Seller user id")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag")
	cmd.Flags().StringVar(&sort, "sort", "", "newest, oldest, price-asc, price-desc")
	cmd.Flags().BoolVar(&remote, "remote", false, "Only remote listings")
	cmd.Flags().Float64Var(&minPrice, "min", 0, "Minimum price")
	cmd.Flags().Float64Var(&maxPrice, "max", 0, "Maximum price")

	return cmd
}

func newListingMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := app.Identity.CurrentUser()
			if user == nil {
				return model.ErrNotAuthenticated
			}

			out.Print(response.ListingsFrom(app.Listings.GetListingsBySeller(user.ID)))
			return nil
		},
	}
}
