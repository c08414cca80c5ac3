// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package pages

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var (
	supported = []language.Tag{language.Swedish, language.English}
	matcher   = language.NewMatcher(supported)

	tags = map[string]language.Tag{"sv": language.Swedish, "en": language.English}
)

// messages are printf style, numbers are formatted for the language.
var messages = map[language.Tag]map[string]string{
	language.Swedish: {
		"brand":         "Hemglass Portal",
		"brand.sub":     "Kundportal",
		"footer":        "Hemglass Kundportal - %s",
		"footer.rights": "© %s Hemglass Portal. Alla rättigheter förbehållna.",
		"loading":       "Laddar...",
		"locale.sv":     "Svenska",
		"locale.en":     "English",

		"index.lead":             "Välkommen till din kundportal. Hantera ärenden, följ upp ordrar och få hjälp när du behöver det.",
		"index.sign_in":          "Logga in",
		"index.sign_up":          "Skapa konto",
		"index.features":         "Allt du behöver på ett ställe",
		"index.features.lead":    "Vår kundportal ger dig full kontroll över dina ärenden och kommunikation med oss.",
		"index.support":          "24/7 Support",
		"index.support.lead":     "Få hjälp när du behöver det. Skapa ärenden och få snabb respons från vårt supportteam.",
		"index.business":         "Företagslösningar",
		"index.business.lead":    "Hantera flera användare och konton med våra avancerade administrativa verktyg.",
		"index.security":         "Säker & Trygg",
		"index.security.lead":    "Dina data är säkra med oss. Vi använder de senaste säkerhetsstandarderna för att skydda din information.",
		"index.get_started":      "Kom igång idag",
		"index.get_started.lead": "Registrera dig nu och få tillgång till alla funktioner i vår kundportal.",
		"index.cta":              "Kom igång",

		"auth.lead":               "Logga in för att komma åt din kundportal",
		"auth.tab.sign_in":        "Logga in",
		"auth.tab.sign_up":        "Registrera",
		"auth.email":              "E-postadress",
		"auth.email.hint":         "din@email.se",
		"auth.password":           "Lösenord",
		"auth.password.hint":      "Ange ditt lösenord",
		"auth.password.new":       "Minst 6 tecken",
		"auth.confirm":            "Bekräfta lösenord",
		"auth.confirm.hint":       "Upprepa lösenordet",
		"auth.first_name":         "Förnamn",
		"auth.first_name.hint":    "Anna",
		"auth.last_name":          "Efternamn",
		"auth.last_name.hint":     "Andersson",
		"auth.submit.sign_in":     "Logga in",
		"auth.submit.sign_up":     "Skapa konto",
		"auth.sign_in_failed":     "Inloggning misslyckades",
		"auth.invalid_creds":      "Ogiltig e-postadress eller lösenord.",
		"auth.confirm_email":      "Bekräfta din e-post",
		"auth.confirm_email.lead": "Vänligen bekräfta din e-postadress innan du loggar in.",
		"auth.sign_in_generic":    "Kunde inte logga in. Försök igen.",
		"auth.welcome":            "Välkommen!",
		"auth.welcome.lead":       "Du har loggats in framgångsrikt.",
		"auth.user_exists":        "Användaren finns redan",
		"auth.user_exists.lead":   "En användare med denna e-postadress finns redan. Försök logga in istället.",
		"auth.sign_up_failed":     "Registrering misslyckades",
		"auth.sign_up_generic":    "Kunde inte skapa konto. Försök igen.",
		"auth.created":            "Konto skapat!",
		"auth.created.lead":       "Bekräfta din e-postadress för att aktivera ditt konto.",
		"auth.signed_out":         "Utloggad",
		"auth.signed_out.lead":    "Du har loggats ut framgångsrikt.",
		"auth.sign_out_failed":    "Kunde inte logga ut. Försök igen.",
		"auth.session_error":      "Din session kunde inte läsas in. Logga in igen.",

		"form.email":             "Ogiltig e-postadress",
		"form.password":          "Lösenordet måste vara minst 6 tecken",
		"form.confirm_password":  "Bekräfta lösenordet",
		"form.password_mismatch": "Lösenorden matchar inte",
		"form.first_name":        "Förnamn krävs",
		"form.last_name":         "Efternamn krävs",

		"error.title": "Ett fel uppstod",

		"dashboard.sign_out":      "Logga ut",
		"dashboard.welcome":       "Välkommen, %s!",
		"dashboard.anonymous":     "Användare",
		"dashboard.lead":          "Här är din översikt av kundportalen.",
		"dashboard.roles":         "Dina roller",
		"dashboard.roles.lead":    "Du har följande behörigheter i systemet",
		"dashboard.tickets":       "Mina ärenden",
		"dashboard.tickets.lead":  "Skapa och hantera supportärenden",
		"dashboard.new_ticket":    "Skapa nytt ärende",
		"dashboard.users":         "Användarhantering",
		"dashboard.users.lead":    "Hantera användare och roller",
		"dashboard.users.action":  "Hantera användare",
		"dashboard.system":        "Systemöversikt",
		"dashboard.system.lead":   "Superadmin kontrollpanel",
		"dashboard.system.action": "Admin Panel",
		"dashboard.active":        "Aktiva ärenden",
		"dashboard.active.lead":   "Inga öppna ärenden",
		"dashboard.account":       "Kontostatus",
		"dashboard.account.value": "Aktiv",
		"dashboard.account.lead":  "Allt fungerar som det ska",
		"dashboard.language":      "Språk",
		"dashboard.denied":        "Åtkomst nekad",
		"dashboard.denied.lead":   "Du måste logga in för att komma åt denna sida.",

		"role.super_admin":   "Superadministratör",
		"role.account_admin": "Kontoadministratör",
		"role.account_user":  "Användare",

		"ticket.page":                 "Skapa ärende – Kundportal",
		"ticket.title":                "Skapa nytt ärende",
		"ticket.back":                 "Tillbaka",
		"ticket.subject":              "Ämne",
		"ticket.subject.hint":         "Beskriv ditt ärende kort...",
		"ticket.type":                 "Typ",
		"ticket.type.hint":            "Välj typ av ärende",
		"ticket.description":          "Beskrivning",
		"ticket.description.hint":     "Beskriv ditt ärende i detalj...",
		"ticket.submit":               "Skapa ärende",
		"ticket.cancel":               "Avbryt",
		"ticket.subject_required":     "Ämne krävs",
		"ticket.type_invalid":         "Välj typ av ärende",
		"ticket.description_required": "Beskrivning krävs",
		"ticket.error":                "Fel",
		"ticket.not_signed_in":        "Du måste vara inloggad för att skapa ett ärende.",
		"ticket.no_account":           "Ingen konto-koppling",
		"ticket.no_account.lead":      "Din profil saknar kopplat konto. Kontakta administratör.",
		"ticket.failed":               "Kunde inte skapa ärendet. Försök igen.",
		"ticket.created":              "Ärende skapat",
		"ticket.created.lead":         "Ditt ärende har skapats framgångsrikt.",
	},
	language.English: {
		"brand":         "Hemglass Portal",
		"brand.sub":     "Customer portal",
		"footer":        "Hemglass Customer Portal - %s",
		"footer.rights": "© %s Hemglass Portal. All rights reserved.",
		"loading":       "Loading...",
		"locale.sv":     "Svenska",
		"locale.en":     "English",

		"index.lead":             "Welcome to your customer portal. Manage tickets, follow up on orders and get help when you need it.",
		"index.sign_in":          "Sign in",
		"index.sign_up":          "Create account",
		"index.features":         "Everything you need in one place",
		"index.features.lead":    "Our customer portal gives you full control over your tickets and your communication with us.",
		"index.support":          "24/7 Support",
		"index.support.lead":     "Get help when you need it. Create tickets and get a quick response from our support team.",
		"index.business":         "Business solutions",
		"index.business.lead":    "Manage multiple users and accounts with our advanced administration tools.",
		"index.security":         "Safe & Secure",
		"index.security.lead":    "Your data is safe with us. We use the latest security standards to protect your information.",
		"index.get_started":      "Get started today",
		"index.get_started.lead": "Sign up now and get access to every feature of our customer portal.",
		"index.cta":              "Get started",

		"auth.lead":               "Sign in to access your customer portal",
		"auth.tab.sign_in":        "Sign in",
		"auth.tab.sign_up":        "Sign up",
		"auth.email":              "Email address",
		"auth.email.hint":         "you@email.com",
		"auth.password":           "Password",
		"auth.password.hint":      "Enter your password",
		"auth.password.new":       "At least 6 characters",
		"auth.confirm":            "Confirm password",
		"auth.confirm.hint":       "Repeat the password",
		"auth.first_name":         "First name",
		"auth.first_name.hint":    "Anna",
		"auth.last_name":          "Last name",
		"auth.last_name.hint":     "Andersson",
		"auth.submit.sign_in":     "Sign in",
		"auth.submit.sign_up":     "Create account",
		"auth.sign_in_failed":     "Sign in failed",
		"auth.invalid_creds":      "Invalid email address or password.",
		"auth.confirm_email":      "Confirm your email",
		"auth.confirm_email.lead": "Please confirm your email address before signing in.",
		"auth.sign_in_generic":    "Could not sign in. Please try again.",
		"auth.welcome":            "Welcome!",
		"auth.welcome.lead":       "You have signed in successfully.",
		"auth.user_exists":        "User already exists",
		"auth.user_exists.lead":   "A user with this email address already exists. Try signing in instead.",
		"auth.sign_up_failed":     "Sign up failed",
		"auth.sign_up_generic":    "Could not create the account. Please try again.",
		"auth.created":            "Account created!",
		"auth.created.lead":       "Confirm your email address to activate your account.",
		"auth.signed_out":         "Signed out",
		"auth.signed_out.lead":    "You have signed out successfully.",
		"auth.sign_out_failed":    "Could not sign out. Please try again.",
		"auth.session_error":      "Your session could not be loaded. Please sign in again.",

		"form.email":             "Invalid email address",
		"form.password":          "The password must be at least 6 characters",
		"form.confirm_password":  "Confirm the password",
		"form.password_mismatch": "The passwords do not match",
		"form.first_name":        "First name is required",
		"form.last_name":         "Last name is required",

		"error.title": "An error occurred",

		"dashboard.sign_out":      "Sign out",
		"dashboard.welcome":       "Welcome, %s!",
		"dashboard.anonymous":     "User",
		"dashboard.lead":          "Here is your overview of the customer portal.",
		"dashboard.roles":         "Your roles",
		"dashboard.roles.lead":    "You have the following permissions in the system",
		"dashboard.tickets":       "My tickets",
		"dashboard.tickets.lead":  "Create and manage support tickets",
		"dashboard.new_ticket":    "Create new ticket",
		"dashboard.users":         "User management",
		"dashboard.users.lead":    "Manage users and roles",
		"dashboard.users.action":  "Manage users",
		"dashboard.system":        "System overview",
		"dashboard.system.lead":   "Super admin control panel",
		"dashboard.system.action": "Admin Panel",
		"dashboard.active":        "Active tickets",
		"dashboard.active.lead":   "No open tickets",
		"dashboard.account":       "Account status",
		"dashboard.account.value": "Active",
		"dashboard.account.lead":  "Everything works as it should",
		"dashboard.language":      "Language",
		"dashboard.denied":        "Access denied",
		"dashboard.denied.lead":   "You must sign in to access this page.",

		"role.super_admin":   "Super administrator",
		"role.account_admin": "Account administrator",
		"role.account_user":  "User",

		"ticket.page":                 "Create ticket – Customer portal",
		"ticket.title":                "Create new ticket",
		"ticket.back":                 "Back",
		"ticket.subject":              "Subject",
		"ticket.subject.hint":         "Describe your issue briefly...",
		"ticket.type":                 "Type",
		"ticket.type.hint":            "Choose the ticket type",
		"ticket.description":          "Description",
		"ticket.description.hint":     "Describe your issue in detail...",
		"ticket.submit":               "Create ticket",
		"ticket.cancel":               "Cancel",
		"ticket.subject_required":     "Subject is required",
		"ticket.type_invalid":         "Choose the ticket type",
		"ticket.description_required": "Description is required",
		"ticket.error":                "Error",
		"ticket.not_signed_in":        "You must be signed in to create a ticket.",
		"ticket.no_account":           "No account link",
		"ticket.no_account.lead":      "Your profile is not linked to an account. Contact an administrator.",
		"ticket.failed":               "Could not create the ticket. Please try again.",
		"ticket.created":              "Ticket created",
		"ticket.created.lead":         "Your ticket has been created successfully.",
	},
}

var translations = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Swedish))

	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("invalid message %s for %s: %v", key, tag, err))
			}
		}
	}

	return b
}

// Localizer renders catalog messages in one language. Unknown keys render
// as the key itself.
type Localizer struct {
	lang    string
	printer *message.Printer
}

func (l *Localizer) Lang() string {
	return l.lang
}

func (l *Localizer) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// NewLocalizer falls back to Swedish for unsupported languages.
func NewLocalizer(lang string) *Localizer {
	tag, ok := tags[lang]
	if !ok {
		lang, tag = "sv", language.Swedish
	}

	return &Localizer{lang: lang, printer: message.NewPrinter(tag, message.Catalog(translations))}
}

// Negotiate picks the language from the profile locale, then the
// Accept-Language header, then fallback.
func Negotiate(profileLocale, acceptLanguage, fallback string) *Localizer {
	prefs := make([]language.Tag, 0)

	if profileLocale != "" {
		if t, err := language.Parse(profileLocale); err == nil {
			prefs = append(prefs, t)
		}
	}

	if accept, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		prefs = append(prefs, accept...)
	}

	if len(prefs) == 0 {
		return NewLocalizer(fallback)
	}

	tag, _, confidence := matcher.Match(prefs...)
	if confidence == language.No {
		return NewLocalizer(fallback)
	}

	base, _ := tag.Base()

	return NewLocalizer(base.String())
}
