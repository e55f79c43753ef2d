// Package gpio drives the button and the buzzer through the GPIO character
// device (/dev/gpiochipN).
package gpio

// consumer labels the lines this daemon holds, as shown by gpioinfo.
const consumer = "oled-status"
