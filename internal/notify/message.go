package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const timeLayout = "2006-01-02 15:04:05 MST"

var markdownEscaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	"`", "\\`",
	`[`, `\[`,
)

// escape protects user supplied text inside legacy Markdown messages.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

// OrderPlacedMessage announces a new order to the operator channel.
func OrderPlacedMessage(orderID uuid.UUID, courseTitle, buyerHandle, priceLabel string, at time.Time) string {
	var b strings.Builder
	b.WriteString("🛒 *NEW COURSE ORDER*\n\n")
	fmt.Fprintf(&b, "📚 *Course:* %s\n", escape(courseTitle))
	fmt.Fprintf(&b, "🆔 *Order ID:* %s\n", orderID)
	if priceLabel != "" {
		fmt.Fprintf(&b, "💰 *Price:* %s\n", escape(priceLabel))
	}
	fmt.Fprintf(&b, "⏰ *Order Time:* %s\n", at.Format(timeLayout))
	fmt.Fprintf(&b, "👤 *Telegram:* @%s\n\n", escape(buyerHandle))
	b.WriteString("Order is waiting for processing. Course will be sent directly to the customer.")
	return b.String()
}

// CourseDeliveredMessage carries the download link for the operator to forward to the buyer.
func CourseDeliveredMessage(orderID uuid.UUID, courseTitle, buyerHandle, courseLink, customMessage string) string {
	handle := escape(buyerHandle)

	var b strings.Builder
	b.WriteString("📬 *COURSE DELIVERED*\n\n")
	fmt.Fprintf(&b, "🆔 *Order ID:* %s\n", orderID)
	fmt.Fprintf(&b, "📚 *Course:* %s\n", escape(courseTitle))
	fmt.Fprintf(&b, "👤 *Customer:* @%s\n\n", handle)
	b.WriteString("Course link has been prepared and ready to send to the customer.\n")
	fmt.Fprintf(&b, "Please forward this message to @%s:\n\n", handle)
	b.WriteString("✅ *YOUR COURSE IS READY!*\n\n")
	fmt.Fprintf(&b, "🆔 *Order ID:* %s\n", orderID)
	fmt.Fprintf(&b, "📚 *Course:* %s\n", escape(courseTitle))
	fmt.Fprintf(&b, "🔗 *Download Link:* %s", escape(courseLink))
	if customMessage != "" {
		fmt.Fprintf(&b, "\n\n📝 *Message:* %s", escape(customMessage))
	}
	return b.String()
}

// CourseRequestMessage asks the operator to source a course missing from the catalog.
func CourseRequestMessage(courseName, buyerHandle, additionalInfo string, at time.Time) string {
	var b strings.Builder
	b.WriteString("🔍 *NEW COURSE REQUEST*\n\n")
	fmt.Fprintf(&b, "📚 *Requested Course:* %s\n", escape(courseName))
	fmt.Fprintf(&b, "👤 *Requested By:* @%s\n", escape(buyerHandle))
	if additionalInfo != "" {
		fmt.Fprintf(&b, "📝 *Additional Info:* %s\n", escape(additionalInfo))
	}
	fmt.Fprintf(&b, "⏰ *Request Time:* %s\n\n", at.Format(timeLayout))
	b.WriteString("Please review this request and inform the customer if this course becomes available.")
	return b.String()
}
